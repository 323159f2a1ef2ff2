package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStyles_RenderKeepsText(t *testing.T) {
	// Given: default styles
	styles := DefaultStyles()

	// Then: rendered text is preserved whatever the terminal profile
	assert.Contains(t, styles.Title.Render("Results"), "Results")
	assert.Contains(t, styles.Section.Render("Result 1"), "Result 1")
	assert.Contains(t, styles.Emphasis.Render("Source"), "Source")
	assert.Contains(t, styles.Error.Render("failed"), "failed")
}

func TestNoColorStyles_PlainRendering(t *testing.T) {
	// Given: no-color styles
	styles := NoColorStyles()

	// Then: rendering is the identity
	assert.Equal(t, "Results", styles.Title.Render("Results"))
	assert.Equal(t, "ok", styles.Success.Render("ok"))
	assert.Equal(t, "warn", styles.Warning.Render("warn"))
	assert.Equal(t, "```", styles.Fence.Render("```"))
}

func TestGetStyles_SwitchesOnPreference(t *testing.T) {
	// When: color is disabled
	plain := GetStyles(true)

	// Then: rendering adds nothing
	assert.Equal(t, "text", plain.Dim.Render("text"))

	// When: color is enabled
	styled := GetStyles(false)

	// Then: the text is still present
	assert.Contains(t, styled.Dim.Render("text"), "text")
}
