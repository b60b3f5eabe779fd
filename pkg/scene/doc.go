// Package scene is the live map scene that front ends render and query.
//
// A Scene holds named layers (each bound to a style name), cameras, lights,
// per-style shader uniforms and the features loaded from the scene's
// sources. It is the single mutable configuration shared by the style
// manager, the light panel and the hover controller.
//
// # Lifecycle
//
// [Load] decodes a TOML or YAML scene file (local or http/https), opens its
// sources, assigns features to layers and closes the [Scene.Ready] channel.
// Consumers wait on Ready before capturing baselines or issuing queries.
//
// # Concurrency
//
// All methods are safe for concurrent use. Mutations take a write lock;
// [Scene.FeatureAt] takes a read lock so hit-queries can run on goroutines
// outside the front end's event loop.
//
// # Hit queries
//
// [Scene.FeatureAt] unprojects a screen pixel through the current
// [viewport.View] and walks layers from the top of the draw order down.
// Polygons hit when they contain the point; points and lines hit within a
// few pixels.
package scene
