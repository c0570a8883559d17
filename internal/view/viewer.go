package view

import (
	"slices"

	"github.com/joescharf/scout/internal/models"
)

// ViewerState is the state of the file viewer.
type ViewerState struct {
	Files   []models.File
	FileID  string
	Page    int
	Loading bool
	// URL is the blob reference of the displayed file, "" when none.
	URL         string
	ContentType string
	Error       string
}

// ViewerAction is an event in the file viewer.
type ViewerAction interface{ viewerAction() }

type (
	FilesLoaded   struct{ Files []models.File }
	FilesFailed   struct{ Err error }
	FileRequested struct {
		FileID string
		Page   int
	}
	// FileLoaded delivers the blob for FileID. A stale delivery, for a file
	// no longer requested, is released immediately.
	FileLoaded struct {
		FileID      string
		URL         string
		ContentType string
	}
	FileFailed struct {
		FileID string
		Err    error
	}
	Unmounted struct{}
)

func (FilesLoaded) viewerAction()   {}
func (FilesFailed) viewerAction()   {}
func (FileRequested) viewerAction() {}
func (FileLoaded) viewerAction()    {}
func (FileFailed) viewerAction()    {}
func (Unmounted) viewerAction()     {}

// ReduceViewer returns the state after a and the blob URLs the caller must
// revoke. Every URL handed in through FileLoaded is returned exactly once,
// either when it is replaced, when it is stale, or on Unmounted.
func ReduceViewer(s ViewerState, a ViewerAction) (ViewerState, []string) {
	var revoke []string
	release := func() {
		if s.URL != "" {
			revoke = append(revoke, s.URL)
			s.URL, s.ContentType = "", ""
		}
	}

	switch a := a.(type) {
	case FilesLoaded:
		s.Files = slices.Clone(a.Files)
	case FilesFailed:
		s.Error = MsgFilesFailed
	case FileRequested:
		release()
		s.FileID = a.FileID
		s.Page = max(a.Page, 1)
		s.Loading = true
		s.Error = ""
	case FileLoaded:
		if !s.Loading || a.FileID != s.FileID {
			if a.URL != "" {
				revoke = append(revoke, a.URL)
			}
			break
		}
		release()
		s.Loading = false
		s.URL = a.URL
		s.ContentType = a.ContentType
	case FileFailed:
		if s.Loading && a.FileID == s.FileID {
			s.Loading = false
			s.Error = MsgFileFailed
		}
	case Unmounted:
		release()
		s.Loading = false
	}
	return s, revoke
}
