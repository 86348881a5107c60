package ui

import (
	"strings"
	"testing"
)

func TestNewConsole(t *testing.T) {
	console := NewConsole()
	if console == nil {
		t.Fatal("NewConsole() returned nil")
	}
}

func TestConsole_formatMessage(t *testing.T) {
	console := &Console{useColors: true}

	tests := []struct {
		style    ConsoleStyle
		message  string
		expected bool // true if the result should contain color codes
	}{
		{StyleNormal, "test message", false},
		{StyleError, "error message", true},
		{StyleWarning, "warning message", true},
		{StyleSuccess, "success message", true},
		{StyleInfo, "info message", true},
	}

	for _, test := range tests {
		result := console.formatMessage(test.style, test.message)

		if test.expected {
			// Should contain color codes and reset code
			if !strings.Contains(result, test.message) {
				t.Errorf("formatMessage(%v, %q) should contain original message", test.style, test.message)
			}
			if !strings.Contains(result, colorReset) {
				t.Errorf("formatMessage(%v, %q) should contain reset code", test.style, test.message)
			}
		} else {
			// Should return original message unchanged
			if result != test.message {
				t.Errorf("formatMessage(%v, %q) = %q, want %q", test.style, test.message, result, test.message)
			}
		}
	}
}

func TestConsole_formatMessage_NoColors(t *testing.T) {
	console := &Console{useColors: false}

	result := console.formatMessage(StyleError, "test message")
	if result != "test message" {
		t.Errorf("formatMessage with useColors=false should return original message, got %q", result)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"CONTAINER ID", "IMAGE", "NAMES"},
		[]map[string]string{
			{"CONTAINER ID": "abc123def456", "IMAGE": "nginx", "NAMES": "web"},
			{"CONTAINER ID": "fed654cba321", "IMAGE": "redis", "NAMES": "cache"},
		},
	)

	expected := "CONTAINER ID   IMAGE   NAMES\n" +
		"abc123def456   nginx   web\n" +
		"fed654cba321   redis   cache\n"
	if out != expected {
		t.Errorf("RenderTable() = %q, want %q", out, expected)
	}
}

func TestRenderTable_WidensToLongestCell(t *testing.T) {
	out := RenderTable(
		[]string{"ID", "IMAGE"},
		[]map[string]string{
			{"ID": "abc123def456", "IMAGE": "nginx"},
		},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderTable() returned %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[1], "abc123def456   nginx") {
		t.Errorf("data row %q not aligned to the widest cell", lines[1])
	}
	if !strings.HasPrefix(lines[0], "ID ") {
		t.Errorf("header %q should pad the ID column", lines[0])
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if out := RenderTable(nil, nil); out != "" {
		t.Errorf("RenderTable with no columns should return empty string, got %q", out)
	}

	out := RenderTable([]string{"ID"}, nil)
	if out != "ID\n" {
		t.Errorf("RenderTable with no rows should print only the header, got %q", out)
	}
}
