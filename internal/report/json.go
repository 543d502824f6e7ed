package report

import (
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

// JSONFormatter renders a Report per the stable schema in spec.md §6:
// duplicate_files, duplicate_folders, unique_files, statistics, warnings.
type JSONFormatter struct {
	Indent bool
}

type jsonFile struct {
	Path          string `json:"path"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted"`
}

type jsonDuplicateFileGroup struct {
	Hash  string     `json:"hash"`
	Size  int64      `json:"size"`
	Count int        `json:"count"`
	Files []jsonFile `json:"files"`
}

type jsonFolderMember struct {
	Path string `json:"path"`
}

type jsonDuplicateFolderGroup struct {
	Hash       string             `json:"hash"`
	FileCount  uint32             `json:"file_count"`
	TotalBytes uint64             `json:"total_bytes"`
	Count      int                `json:"count"`
	Folders    []jsonFolderMember `json:"folders"`
}

type jsonStatistics struct {
	FilesWalked   int64  `json:"files_walked"`
	BytesWalked   int64  `json:"bytes_walked"`
	Stage1Buckets int64  `json:"stage1_buckets"`
	Stage2Buckets int64  `json:"stage2_buckets"`
	Stage3Buckets int64  `json:"stage3_buckets"`
	DurationMS    int64  `json:"duration_ms"`
	Workers       int    `json:"workers"`
	DiskHint      string `json:"disk_hint"`
	Confidence    string `json:"confidence"`
}

type jsonReport struct {
	DuplicateFiles   []jsonDuplicateFileGroup   `json:"duplicate_files"`
	DuplicateFolders []jsonDuplicateFolderGroup `json:"duplicate_folders"`
	UniqueFiles      []jsonFile                 `json:"unique_files"`
	Statistics       jsonStatistics             `json:"statistics"`
	Warnings         map[string]int64           `json:"warnings"`
}

// Format implements Formatter.
func (f JSONFormatter) Format(w io.Writer, r model.Report) error {
	jr := jsonReport{
		Warnings: r.Warnings,
		Statistics: jsonStatistics{
			FilesWalked:   r.Stats.FilesWalked,
			BytesWalked:   r.Stats.BytesWalked,
			Stage1Buckets: r.Stats.Stage1Buckets,
			Stage2Buckets: r.Stats.Stage2Buckets,
			Stage3Buckets: r.Stats.Stage3Buckets,
			DurationMS:    r.Stats.Duration.Milliseconds(),
			Workers:       r.Stats.Workers,
			DiskHint:      r.Stats.DiskHint,
			Confidence:    r.Confidence.String(),
		},
	}
	if jr.Warnings == nil {
		jr.Warnings = map[string]int64{}
	}

	for _, g := range r.FileGroups {
		files := make([]jsonFile, 0, g.Members.Len())
		for _, p := range g.Members.Items() {
			files = append(files, jsonFile{Path: p, Size: g.Size, SizeFormatted: humanize.Bytes(uint64(g.Size))})
		}
		jr.DuplicateFiles = append(jr.DuplicateFiles, jsonDuplicateFileGroup{
			Hash:  hex.EncodeToString(g.Digest[:]),
			Size:  g.Size,
			Count: g.Members.Len(),
			Files: files,
		})
	}

	for _, g := range r.FolderGroups {
		folders := make([]jsonFolderMember, 0, g.Members.Len())
		for _, p := range g.Members.Items() {
			folders = append(folders, jsonFolderMember{Path: p})
		}
		jr.DuplicateFolders = append(jr.DuplicateFolders, jsonDuplicateFolderGroup{
			Hash:       hex.EncodeToString(g.Digest[:]),
			FileCount:  g.FileCount,
			TotalBytes: g.TotalBytes,
			Count:      g.Members.Len(),
			Folders:    folders,
		})
	}

	for _, u := range r.UniqueFiles {
		jr.UniqueFiles = append(jr.UniqueFiles, jsonFile{Path: u.Path, Size: u.Size, SizeFormatted: humanize.Bytes(uint64(u.Size))})
	}

	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(jr)
}
