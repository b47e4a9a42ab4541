// Package artifact searches a remote hierarchical store for the video a
// finished process produced.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by a Drive for a folder that does not exist. The
// index treats such a folder as empty.
var ErrNotFound = errors.New("artifact: item not found")

// Item is one entry of the remote store.
type Item struct {
	ID     string
	Name   string
	Path   string
	Folder bool
	WebURL string
}

// Drive is the capability pair the index needs from the remote store.
// ListChildren returns at most limit children when limit is positive and
// should stop fetching once it has them.
type Drive interface {
	ListChildren(ctx context.Context, folder Item, limit int) ([]Item, error)
	ShareLink(ctx context.Context, file Item) (string, error)
}

// VideoReference points at a located video.
type VideoReference struct {
	WebURL   string `json:"web_url"`
	FileName string `json:"file_name"`
	Path     string `json:"path,omitempty"`
}

// DefaultExtensions are the recognised video file extensions.
var DefaultExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

// Limits bounds a traversal. Zero values fall back to the defaults.
type Limits struct {
	// MaxDepth is the deepest folder level listed; the root is depth 0.
	MaxDepth int
	// MaxItems caps the total number of children enumerated.
	MaxItems   int
	Extensions []string
}

const (
	DefaultMaxDepth = 4
	DefaultMaxItems = 2000
)

func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxItems <= 0 {
		l.MaxItems = DefaultMaxItems
	}
	if len(l.Extensions) == 0 {
		l.Extensions = DefaultExtensions
	}
	return l
}

// Stats describes how much of the tree a search enumerated.
type Stats struct {
	Folders   int  `json:"folders"`
	Items     int  `json:"items"`
	Truncated bool `json:"truncated"`
}

// RootItem addresses a folder by path.
func RootItem(p string) Item {
	return Item{Name: path.Base(p), Path: strings.Trim(p, "/"), Folder: true}
}

type frame struct {
	item  Item
	depth int
	// tagged is set below a folder whose name contains the uuid, matching
	// the <root>/<client>/<uuid>/video.mp4 upload layout.
	tagged bool
}

// FindVideo walks root depth-first and returns the first video file whose
// name, or whose enclosing folder's name, contains uuid. Children are
// examined in the order the Drive returns them; a folder's files are checked
// before its subfolders are entered. Returns nil when the tree or the limits
// are exhausted without a match.
func FindVideo(ctx context.Context, uuid string, root Item, drive Drive, lim Limits) (*VideoReference, Stats, error) {
	lim = lim.withDefaults()
	needle := strings.ToLower(uuid)
	var st Stats
	if needle == "" {
		return nil, st, nil
	}

	stack := []frame{{item: root, depth: 0}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		if st.Items >= lim.MaxItems {
			st.Truncated = true
			return nil, st, nil
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// One child past the budget is enough to tell a full folder from a
		// truncated one.
		children, err := drive.ListChildren(ctx, top.item, lim.MaxItems-st.Items+1)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, st, fmt.Errorf("list %s: %w", displayPath(top.item), err)
		}
		st.Folders++

		var subfolders []frame
		for _, child := range children {
			if st.Items >= lim.MaxItems {
				st.Truncated = true
				return nil, st, nil
			}
			st.Items++
			if child.Folder {
				if top.depth+1 <= lim.MaxDepth {
					subfolders = append(subfolders, frame{
						item:   child,
						depth:  top.depth + 1,
						tagged: top.tagged || strings.Contains(strings.ToLower(child.Name), needle),
					})
				} else {
					st.Truncated = true
				}
				continue
			}
			if !isVideo(child.Name, needle, top.tagged, lim.Extensions) {
				continue
			}
			link, err := drive.ShareLink(ctx, child)
			if err != nil {
				return nil, st, fmt.Errorf("share link for %s: %w", displayPath(child), err)
			}
			return &VideoReference{WebURL: link, FileName: child.Name, Path: child.Path}, st, nil
		}
		for i := len(subfolders) - 1; i >= 0; i-- {
			stack = append(stack, subfolders[i])
		}
	}
	return nil, st, nil
}

func isVideo(name, needle string, tagged bool, exts []string) bool {
	lower := strings.ToLower(name)
	if !tagged && !strings.Contains(lower, needle) {
		return false
	}
	ext := path.Ext(lower)
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func displayPath(it Item) string {
	if it.Path != "" {
		return it.Path
	}
	if it.ID != "" {
		return it.ID
	}
	return it.Name
}
