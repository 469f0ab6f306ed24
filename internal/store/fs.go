package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSArchive stores reports as plain files in a local directory.
type FSArchive struct {
	dir string
}

// NewFSArchive creates the reports directory if needed.
func NewFSArchive(dir string) (*FSArchive, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("store: reports dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create reports dir: %w", err)
	}
	return &FSArchive{dir: dir}, nil
}

// Dir returns the archive directory.
func (a *FSArchive) Dir() string {
	return a.dir
}

func (a *FSArchive) Put(ctx context.Context, report Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateReport(report); err != nil {
		return "", err
	}

	base := BaseName(report.Window, reportCreatedAt(report))
	if len(report.HTML) > 0 {
		if err := os.WriteFile(filepath.Join(a.dir, base+".html"), report.HTML, 0o644); err != nil {
			return "", fmt.Errorf("store: write report html: %w", err)
		}
	}
	if len(report.JSON) > 0 {
		if err := os.WriteFile(filepath.Join(a.dir, base+".json"), report.JSON, 0o644); err != nil {
			return "", fmt.Errorf("store: write report json: %w", err)
		}
	}
	return base, nil
}

func (a *FSArchive) List(ctx context.Context) ([]ReportInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("store: read reports dir: %w", err)
	}

	infos := make([]ReportInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsReportFile(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, ReportInfo{
			Name:    entry.Name(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	sortReportInfos(infos)
	return infos, nil
}

func (a *FSArchive) Close() error {
	return nil
}

// sortReportInfos orders newest first, name descending as a tiebreak so a
// report's html and json files stay adjacent.
func sortReportInfos(infos []ReportInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].ModTime.Equal(infos[j].ModTime) {
			return infos[i].ModTime.After(infos[j].ModTime)
		}
		return infos[i].Name > infos[j].Name
	})
}
