// Package graph is a small client for the Microsoft Graph endpoints the
// report job needs: listing OneDrive folders, creating share links and
// sending mail.
//
// Usage:
//
//	ts, err := graph.TokenSource(ctx, authCfg)
//	client, err := graph.New(graph.DefaultBaseURL, graph.WithTokenSource(ts), graph.WithTimeout(30*time.Second))
//	items, err := client.ListChildrenByPath(ctx, "Uploads/key-acme", 0)
//	link, err := client.CreateLink(ctx, items[0].ID, "view", "organization")
//
// Authentication uses the OAuth2 device-code flow; run DeviceLogin once to
// populate the token cache.
package graph
