// Package ui implements the interactive swipe deck using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [LoadingView] : Reconciliation in progress, with live progress updates
//  2. [SwipeView] : One card per track; the preview plays while the card is shown
//  3. [LikedView] : Tracks liked this session
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving messages via the Msg union type.
// Queue loads, swipes and preview playback run as commands so the view never blocks on the network.
//
// Keys: ←/h skip, →/l like, space play/pause, r reload, tab liked list, q quit.
package ui
