package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutListDetailWidth is the minimum width to show country and currency
	// columns in the location list.
	LayoutListDetailWidth = 90
)

// Vertical space taken by chrome around the screen content.
const (
	// chromeHeight covers the header and command bar.
	chromeHeight = 2

	// mapFooterHeight is the selected-marker line under the map.
	mapFooterHeight = 1
)

// Map zoom steps.
const (
	zoomInFactor  = 0.5
	zoomOutFactor = 2.0
)

// formInputWidth bounds the text inputs on wide terminals.
const formInputWidth = 48
