package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DriveItem is the subset of a Graph driveItem the job reads.
type DriveItem struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	WebURL string       `json:"webUrl"`
	Size   int64        `json:"size,omitempty"`
	Folder *folderFacet `json:"folder,omitempty"`
	File   *fileFacet   `json:"file,omitempty"`
}

type folderFacet struct {
	ChildCount int `json:"childCount"`
}

type fileFacet struct {
	MimeType string `json:"mimeType"`
}

// IsFolder reports whether the item has a folder facet.
func (d DriveItem) IsFolder() bool { return d.Folder != nil }

type childrenPage struct {
	Value    []DriveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// ListChildrenByPath lists a folder addressed by its path below the drive
// root. An empty path lists the root. A positive limit stops paging once that
// many children have been read.
func (c *Client) ListChildrenByPath(ctx context.Context, p string, limit int) ([]DriveItem, error) {
	p = strings.Trim(p, "/")
	u := c.baseURL + "/me/drive/root/children"
	if p != "" {
		u = fmt.Sprintf("%s/me/drive/root:/%s:/children", c.baseURL, escapePath(p))
	}
	return c.listAll(ctx, u, "list children "+p, limit)
}

// ListChildren lists a folder addressed by item ID, with the same limit
// semantics as ListChildrenByPath.
func (c *Client) ListChildren(ctx context.Context, itemID string, limit int) ([]DriveItem, error) {
	u := fmt.Sprintf("%s/me/drive/items/%s/children", c.baseURL, url.PathEscape(itemID))
	return c.listAll(ctx, u, "list children "+itemID, limit)
}

// listAll follows @odata.nextLink until the listing is exhausted or, for a
// positive limit, until limit children have been read.
func (c *Client) listAll(ctx context.Context, u, operation string, limit int) ([]DriveItem, error) {
	var out []DriveItem
	for u != "" {
		var page childrenPage
		if err := c.doJSON(ctx, "GET", u, operation, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		u = page.NextLink
	}
	return out, nil
}

type createLinkRQ struct {
	Type  string `json:"type"`
	Scope string `json:"scope,omitempty"`
}

type createLinkRS struct {
	Link struct {
		WebURL string `json:"webUrl"`
	} `json:"link"`
}

// CreateLink creates (or returns the existing) sharing link for an item.
// linkType is "view" or "edit"; scope is "anonymous", "organization" or
// "users".
func (c *Client) CreateLink(ctx context.Context, itemID, linkType, scope string) (string, error) {
	u := fmt.Sprintf("%s/me/drive/items/%s/createLink", c.baseURL, url.PathEscape(itemID))
	var rs createLinkRS
	if err := c.doJSON(ctx, "POST", u, "create link", createLinkRQ{Type: linkType, Scope: scope}, &rs); err != nil {
		return "", err
	}
	if rs.Link.WebURL == "" {
		return "", fmt.Errorf("create link: response has no webUrl")
	}
	return rs.Link.WebURL, nil
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
