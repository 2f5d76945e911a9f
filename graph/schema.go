// Package graph describes media filter graphs through the textformat engine.
// It declares the section tree of a graph description, a plain data model
// that can be loaded from YAML, and a Printer that renders many graphs
// concurrently into one document.
package graph

import (
	"github.com/cockroachdb/errors"

	"github.com/bjaus/textformat"
)

// Section ids of the graph description schema.
const (
	SectionRoot textformat.SectionID = iota
	SectionProgramVersion
	SectionGraphs
	SectionGraph
	SectionInputs
	SectionInput
	SectionOutputs
	SectionOutput
	SectionFilters
	SectionFilter
	SectionHwDeviceContext
	SectionHwFramesContext
	SectionError
	SectionLogEntry
	SectionLogs
)

func sectionTable() []textformat.Section {
	return []textformat.Section{
		{ID: SectionRoot, Name: "GraphDescription", Flags: textformat.SectionWrapper,
			Children: []textformat.SectionID{SectionError, SectionProgramVersion, SectionGraphs, SectionLogs}},
		{ID: SectionProgramVersion, Name: "ProgramVersion"},
		{ID: SectionGraphs, Name: "Graphs", Flags: textformat.SectionArray, ElementName: "Graph",
			Children: []textformat.SectionID{SectionGraph}},
		{ID: SectionGraph, Name: "Graph",
			Children: []textformat.SectionID{SectionInputs, SectionOutputs, SectionFilters, SectionError}},
		{ID: SectionInputs, Name: "Inputs", Flags: textformat.SectionArray, ElementName: "Input",
			Children: []textformat.SectionID{SectionInput, SectionError}},
		{ID: SectionInput, Name: "Input",
			Children: []textformat.SectionID{SectionHwFramesContext, SectionHwDeviceContext, SectionError}},
		{ID: SectionOutputs, Name: "Outputs", Flags: textformat.SectionArray, ElementName: "Output",
			Children: []textformat.SectionID{SectionOutput, SectionError}},
		{ID: SectionOutput, Name: "Output",
			Children: []textformat.SectionID{SectionHwFramesContext, SectionHwDeviceContext, SectionError}},
		{ID: SectionFilters, Name: "Filters", Flags: textformat.SectionArray, ElementName: "Filter",
			Children: []textformat.SectionID{SectionFilter, SectionError}},
		{ID: SectionFilter, Name: "Filter",
			Children: []textformat.SectionID{SectionHwDeviceContext, SectionInputs, SectionOutputs, SectionError}},
		{ID: SectionHwDeviceContext, Name: "HwDeviceContext",
			Children: []textformat.SectionID{SectionError}},
		{ID: SectionHwFramesContext, Name: "HwFramesContext",
			Children: []textformat.SectionID{SectionHwDeviceContext, SectionError}},
		{ID: SectionError, Name: textformat.ErrorSectionName},
		{ID: SectionLogEntry, Name: "LogEntry"},
		{ID: SectionLogs, Name: "Log", Flags: textformat.SectionArray, ElementName: "LogEntry",
			Children: []textformat.SectionID{SectionLogEntry, SectionError}},
	}
}

// NewSchema returns a fresh graph description schema. Each call builds its
// own copy so that ShowAllEntries on one does not leak into another.
func NewSchema() *textformat.Schema {
	s, err := textformat.NewSchema(sectionTable())
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "graph schema"))
	}
	return s
}

// GraphPath is the section path of one graph inside a description.
var GraphPath = []textformat.SectionID{SectionRoot, SectionGraphs, SectionGraph}
