// Package hover shows the name of the map feature under the pointer.
//
// A [Controller] owns exactly one [Label]. Every pointer move produces a
// [Lookup] that the caller runs off its event loop; the [Result] comes back
// through [Controller.Resolve], which attaches, moves or detaches the label.
//
//	look := ctrl.Move(ctx, viewport.Pixel{X: 100, Y: 200})
//	go func() { results <- look(ctx) }()
//	...
//	ctrl.Resolve(ctx, <-results)
//
// While the scene reports panning the label is removed, both when the move
// is processed and when its lookup resolves.
//
// By default the last resolution to arrive wins. [DiscardStale] drops
// resolutions older than the newest move instead.
package hover
