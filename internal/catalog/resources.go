package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/datamate/internal/datamate"
	"github.com/five82/datamate/internal/query"
)

// Status palette shared by the facet options.
const (
	colorOK      = "#50fa7b"
	colorActive  = "#8be9fd"
	colorPending = "#f1fa8c"
	colorFailed  = "#ff5555"
	colorMuted   = "#6272a4"
)

var (
	datasetFacets = query.MustFacetSet(
		query.Facet{Key: "status", Label: "Status", Options: []query.FacetOption{
			{Value: "ACTIVE", Label: "Active", Color: colorOK},
			{Value: "DRAFT", Label: "Draft", Color: colorMuted},
			{Value: "PROCESSING", Label: "Processing", Color: colorActive},
			{Value: "ARCHIVED", Label: "Archived", Color: colorMuted},
		}},
		query.Facet{Key: "type", Label: "Type", Options: []query.FacetOption{
			{Value: "IMAGE", Label: "Image"},
			{Value: "TEXT", Label: "Text"},
			{Value: "AUDIO", Label: "Audio"},
			{Value: "VIDEO", Label: "Video"},
			{Value: "MULTIMODAL", Label: "Multimodal"},
		}},
	)

	annotationFacets = query.MustFacetSet(
		query.Facet{Key: "status", Label: "Status", Options: []query.FacetOption{
			{Value: "PENDING", Label: "Pending", Color: colorPending},
			{Value: "IN_PROGRESS", Label: "In progress", Color: colorActive},
			{Value: "COMPLETED", Label: "Completed", Color: colorOK},
		}},
	)

	// CleansingFacets is exported for the board, which counts tasks per status.
	CleansingFacets = query.MustFacetSet(
		query.Facet{Key: "status", Label: "Status", Options: []query.FacetOption{
			{Value: "PENDING", Label: "Pending", Color: colorPending},
			{Value: "RUNNING", Label: "Running", Color: colorActive},
			{Value: "COMPLETED", Label: "Completed", Color: colorOK},
			{Value: "FAILED", Label: "Failed", Color: colorFailed},
			{Value: "STOPPED", Label: "Stopped", Color: colorMuted},
		}},
	)

	operatorFacets = query.MustFacetSet(
		query.Facet{Key: "category", Label: "Category", Options: []query.FacetOption{
			{Value: "cleaning", Label: "Cleaning", Color: colorActive},
			{Value: "annotation", Label: "Annotation", Color: colorPending},
			{Value: "conversion", Label: "Conversion", Color: colorMuted},
			{Value: "enhancement", Label: "Enhancement", Color: colorOK},
		}},
	)

	knowledgeFacets = query.MustFacetSet(
		query.Facet{Key: "type", Label: "Type", Options: []query.FacetOption{
			{Value: "DOCUMENT", Label: "Document", Color: colorActive},
			{Value: "QA", Label: "Q&A", Color: colorPending},
			{Value: "GRAPH", Label: "Graph", Color: colorOK},
		}},
	)
)

var resources = []Resource{
	{
		Key:   "datasets",
		Title: "Datasets",
		Columns: []Column{
			{Title: "Name", Width: 28}, {Title: "Type", Width: 11}, {Title: "Status", Width: 11},
			{Title: "Files", Width: 7}, {Title: "Size", Width: 10}, {Title: "Updated", Width: 10},
		},
		Facets: datasetFacets,
		open: bind(func(l datamate.Lister) query.FetchFunc[datamate.Dataset] {
			return l.ListDatasets
		}, projectDataset, datasetFacets),
	},
	{
		Key:   "annotation",
		Title: "Annotation",
		Columns: []Column{
			{Title: "Name", Width: 28}, {Title: "Dataset", Width: 20}, {Title: "Status", Width: 12},
			{Title: "Progress", Width: 14}, {Title: "Assignee", Width: 12},
		},
		Facets: annotationFacets,
		open: bind(func(l datamate.Lister) query.FetchFunc[datamate.AnnotationTask] {
			return l.ListAnnotationTasks
		}, projectAnnotation, annotationFacets),
	},
	{
		Key:   "cleansing",
		Title: "Cleansing",
		Columns: []Column{
			{Title: "Name", Width: 26}, {Title: "Dataset", Width: 20}, {Title: "Status", Width: 10},
			{Title: "Progress", Width: 8}, {Title: "Files", Width: 9}, {Title: "Started", Width: 10},
		},
		Facets: CleansingFacets,
		open: bind(func(l datamate.Lister) query.FetchFunc[datamate.CleansingTask] {
			return l.ListCleansingTasks
		}, projectCleansing, CleansingFacets),
	},
	{
		Key:   "operators",
		Title: "Operators",
		Columns: []Column{
			{Title: "Name", Width: 24}, {Title: "Category", Width: 12}, {Title: "Version", Width: 9},
			{Title: "Author", Width: 14}, {Title: "Downloads", Width: 9}, {Title: "Rating", Width: 6},
			{Title: "Installed", Width: 9},
		},
		Facets: operatorFacets,
		open: bind(func(l datamate.Lister) query.FetchFunc[datamate.Operator] {
			return l.ListOperators
		}, projectOperator, operatorFacets),
	},
	{
		Key:   "knowledge",
		Title: "Knowledge",
		Columns: []Column{
			{Title: "Name", Width: 26}, {Title: "Type", Width: 9}, {Title: "Docs", Width: 6},
			{Title: "Chunks", Width: 8}, {Title: "Embedding", Width: 18}, {Title: "Updated", Width: 10},
		},
		Facets: knowledgeFacets,
		open: bind(func(l datamate.Lister) query.FetchFunc[datamate.KnowledgeBase] {
			return l.ListKnowledgeBases
		}, projectKnowledge, knowledgeFacets),
	},
}

func describe(set *query.FacetSet, key, value string) query.FacetOption {
	f, ok := set.Lookup(key)
	if !ok {
		return query.FacetOption{Value: value, Label: value}
	}
	return f.Describe(value)
}

func projectDataset(d datamate.Dataset) Row {
	status := describe(datasetFacets, "status", d.Status)
	return Row{
		ID:     d.ID,
		Status: status,
		Cells: []string{
			fallback(d.Name, d.ID),
			describe(datasetFacets, "type", d.DatasetType).Label,
			status.Label,
			strconv.Itoa(d.FileCount),
			FormatBytes(d.TotalSize),
			FormatAge(d.ParsedUpdatedAt(), now()),
		},
	}
}

func projectAnnotation(a datamate.AnnotationTask) Row {
	status := describe(annotationFacets, "status", a.Status)
	return Row{
		ID:     a.ID,
		Status: status,
		Cells: []string{
			fallback(a.Name, a.ID),
			fallback(a.DatasetName, a.DatasetID),
			status.Label,
			fmt.Sprintf("%d/%d %s", a.CompletedCount, a.TotalCount, FormatPercent(a.Progress()*100)),
			fallback(a.Assignee, "-"),
		},
	}
}

func projectCleansing(c datamate.CleansingTask) Row {
	status := describe(CleansingFacets, "status", c.Status)
	files := "-"
	if c.Progress.TotalFiles > 0 {
		files = fmt.Sprintf("%d/%d", c.Progress.FinishedNum, c.Progress.TotalFiles)
	}
	return Row{
		ID:     c.ID,
		Status: status,
		Cells: []string{
			fallback(c.Name, c.ID),
			fallback(c.DatasetName, "-"),
			status.Label,
			FormatPercent(c.Progress.Process),
			files,
			FormatAge(c.ParsedStartedAt(), now()),
		},
	}
}

func projectOperator(o datamate.Operator) Row {
	category := describe(operatorFacets, "category", o.Category)
	installed := "no"
	if o.Installed {
		installed = "yes"
	}
	return Row{
		ID:     o.ID,
		Status: category,
		Cells: []string{
			fallback(o.Name, o.ID),
			category.Label,
			fallback(o.Version, "-"),
			fallback(o.Author, "-"),
			strconv.Itoa(o.Downloads),
			strconv.FormatFloat(o.Rating, 'f', 1, 64),
			installed,
		},
	}
}

func projectKnowledge(k datamate.KnowledgeBase) Row {
	kind := describe(knowledgeFacets, "type", k.Type)
	return Row{
		ID:     k.ID,
		Status: kind,
		Cells: []string{
			fallback(k.Name, k.ID),
			kind.Label,
			strconv.Itoa(k.DocumentCount),
			strconv.Itoa(k.ChunkCount),
			fallback(k.EmbeddingModel, "-"),
			FormatAge(k.ParsedUpdatedAt(), now()),
		},
	}
}

func fallback(value, alt string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return alt
}
