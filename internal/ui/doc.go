// Package ui implements the terminal mood picker using bubbletea's Elm architecture.
//
// The picker walks through three views:
//  1. [MoodView] : choose a mood
//  2. [IntensityView] : set the intensity slider
//  3. [RecommendationsView] : browse tracks returned for the mood
//
// [Model] implements bubbletea's Init/Update/View and receives async results through the [Msg] union.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, r, q) with contextual help from
// charmbracelet/bubbles/help.
package ui
