// Package style switches a scene between named visual styles and restores
// it to its original look.
//
// # Overview
//
// A [Catalog] lists the available styles. Each [Descriptor] may pin a
// camera and may carry a [Setup] that rebinds layers to the style and
// exposes tuning uniforms. The [Manager] owns the only code path that
// mutates layer bindings.
//
// # Baseline
//
// [Manager.CaptureBaseline] runs once, after the scene is ready. It records
// every layer's style and the active camera. Every [Manager.Apply] first
// restores that snapshot, so styles never stack:
//
//	m, _ := style.NewManager(sc, style.DefaultCatalog(), style.WithPanel(p))
//	<-sc.Ready()
//	_ = m.CaptureBaseline()
//	_ = m.Apply(ctx, "windows") // buildings use "windows", camera isometric
//	_ = m.Apply(ctx, "")        // back to the baseline exactly
//
// # Cameras
//
// A style's camera (or the baseline camera when it has none) becomes the
// restore-to camera that the next Apply resets to before layering its own
// changes. Clearing the selection resets both to the baseline camera.
//
// # Unknown names
//
// Applying an empty or unknown name is the clear path, not an error.
package style
