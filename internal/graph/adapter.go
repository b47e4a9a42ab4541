package graph

import (
	"context"
	"fmt"
	"path"

	"procreport/internal/artifact"
)

// Drive adapts the client to artifact.Drive. Folders are listed by ID when
// known and by path otherwise.
type Drive struct {
	client *Client
	// LinkScope, when set, makes ShareLink create a view link with this
	// scope. When empty the item's own webUrl is used.
	LinkScope string
}

var _ artifact.Drive = (*Drive)(nil)

// NewDrive returns a Drive over c.
func NewDrive(c *Client, linkScope string) *Drive {
	return &Drive{client: c, LinkScope: linkScope}
}

// ListChildren lists at most limit children of a folder, fetching no more
// pages than needed. A missing folder is artifact.ErrNotFound.
func (d *Drive) ListChildren(ctx context.Context, folder artifact.Item, limit int) ([]artifact.Item, error) {
	var (
		items []DriveItem
		err   error
	)
	if folder.ID != "" {
		items, err = d.client.ListChildren(ctx, folder.ID, limit)
	} else {
		items, err = d.client.ListChildrenByPath(ctx, folder.Path, limit)
	}
	if IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s: %w", artifact.ErrNotFound, folder.Path, err)
	}
	if err != nil {
		return nil, err
	}
	out := make([]artifact.Item, 0, len(items))
	for _, it := range items {
		out = append(out, artifact.Item{
			ID:     it.ID,
			Name:   it.Name,
			Path:   path.Join(folder.Path, it.Name),
			Folder: it.IsFolder(),
			WebURL: it.WebURL,
		})
	}
	return out, nil
}

// ShareLink returns a link to file.
func (d *Drive) ShareLink(ctx context.Context, file artifact.Item) (string, error) {
	if d.LinkScope == "" && file.WebURL != "" {
		return file.WebURL, nil
	}
	if file.ID == "" {
		return "", fmt.Errorf("share link: item %s has no id", file.Path)
	}
	scope := d.LinkScope
	if scope == "" {
		scope = "organization"
	}
	return d.client.CreateLink(ctx, file.ID, "view", scope)
}
