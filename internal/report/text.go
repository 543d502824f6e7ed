package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

const ruleWidth = 60

// TextFormatter renders a Report as grouped, emoji-decorated sections,
// grounded on original_source/duplicate_finder/formatter.py's
// format_output: a duplicate-folders section, a duplicate-files section,
// a condensed unique-files section, and a trailing summary-statistics
// block.
type TextFormatter struct {
	// MaxUniqueListed caps how many unique files are printed in full
	// before the output switches to a sample + count. 0 uses the
	// original script's default of 20.
	MaxUniqueListed int
}

func rule() string {
	out := make([]byte, ruleWidth)
	for i := range out {
		out[i] = '='
	}
	return string(out)
}

// Format implements Formatter.
func (f TextFormatter) Format(w io.Writer, r model.Report) error {
	max := f.MaxUniqueListed
	if max == 0 {
		max = 20
	}

	if len(r.FolderGroups) > 0 {
		fmt.Fprintf(w, "\n%s\n📁 DUPLICATE FOLDERS FOUND\n%s\n", rule(), rule())
		for i, g := range r.FolderGroups {
			fmt.Fprintf(w, "\n📁 GROUP %d: %d identical folders (%s each, %d files)\n",
				i+1, g.Members.Len(), humanize.Bytes(g.TotalBytes), g.FileCount)
			for _, p := range g.Members.Items() {
				fmt.Fprintf(w, "   • %s\n", p)
			}
		}
	}

	if len(r.FileGroups) > 0 {
		fmt.Fprintf(w, "\n%s\n🔍 DUPLICATE FILES FOUND\n%s\n", rule(), rule())

		groups := append([]model.FileGroup(nil), r.FileGroups...)
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Size > groups[j].Size })

		for i, g := range groups {
			fmt.Fprintf(w, "\n📁 GROUP %d: %d identical files (%s each)\n", i+1, g.Members.Len(), humanize.Bytes(uint64(g.Size)))
			fmt.Fprintf(w, "   Hash: %x...\n", g.Digest[:8])
			for _, p := range g.Members.Items() {
				fmt.Fprintf(w, "   • %s\n", p)
			}
			if g.Size > 0 {
				savings := g.Size * int64(g.Members.Len()-1)
				fmt.Fprintf(w, "   💾 Potential space savings: %s\n", humanize.Bytes(uint64(savings)))
			}
		}
	} else if len(r.FolderGroups) == 0 {
		fmt.Fprintf(w, "\n✅ No duplicate files found.\n")
	}

	fmt.Fprintf(w, "\n%s\n📄 UNIQUE FILES\n%s\n", rule(), rule())
	if len(r.UniqueFiles) == 0 {
		fmt.Fprintf(w, "No unique files found.\n")
	} else {
		fmt.Fprintf(w, "Found %d unique files\n", len(r.UniqueFiles))
		unique := append([]model.FileEntry(nil), r.UniqueFiles...)
		sort.Slice(unique, func(i, j int) bool { return unique[i].Path < unique[j].Path })

		shown := unique
		truncated := 0
		if len(unique) > max {
			shown = unique[:10]
			truncated = len(unique) - 10
			fmt.Fprintln(w, "Sample of unique files:")
		}
		for _, u := range shown {
			fmt.Fprintf(w, "   • %s (%s)\n", u.Path, humanize.Bytes(uint64(u.Size)))
		}
		if truncated > 0 {
			fmt.Fprintf(w, "   ... and %d more unique files\n", truncated)
		}
	}

	fmt.Fprintf(w, "\n%s\n📊 SUMMARY STATISTICS\n%s\n", rule(), rule())
	duplicateCount := 0
	var totalDuplicateSize, potentialSavings int64
	for _, g := range r.FileGroups {
		n := g.Members.Len()
		duplicateCount += n
		totalDuplicateSize += g.Size * int64(n)
		potentialSavings += g.Size * int64(n-1)
	}
	fmt.Fprintf(w, "📁 Total files scanned: %d\n", r.Stats.FilesWalked)
	fmt.Fprintf(w, "👥 Duplicate files: %d\n", duplicateCount)
	fmt.Fprintf(w, "📄 Unique files: %d\n", len(r.UniqueFiles))
	fmt.Fprintf(w, "🔗 Duplicate groups: %d\n", len(r.FileGroups))
	fmt.Fprintf(w, "📦 Duplicate folders: %d\n", len(r.FolderGroups))

	if len(r.FileGroups) > 0 {
		fmt.Fprintf(w, "\n💾 Space Analysis:\n")
		fmt.Fprintf(w, "   Total size of duplicates: %s\n", humanize.Bytes(uint64(totalDuplicateSize)))
		fmt.Fprintf(w, "   Potential space savings: %s\n", humanize.Bytes(uint64(potentialSavings)))
		if totalDuplicateSize > 0 {
			pct := float64(potentialSavings) / float64(totalDuplicateSize) * 100
			fmt.Fprintf(w, "   Efficiency gain: %.1f%% space could be saved\n", pct)
		}
	}

	if r.Confidence == model.MetadataOnly {
		fmt.Fprintf(w, "\n⚠️  Results are metadata-only (basename+size); content was not verified.\n")
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\nProcessing warnings summary\n%s\n", rule(), rule())
		kinds := make([]string, 0, len(r.Warnings))
		for k := range r.Warnings {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "   %s: %d\n", k, r.Warnings[k])
		}
	}

	fmt.Fprintln(w, rule())
	return nil
}
