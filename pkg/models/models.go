// Package models contains data types shared between the client and the shell.
package models

import "time"

// EntryType classifies a listing entry.
type EntryType string

const (
	EntryFile   EntryType = "file"
	EntryDir    EntryType = "dir"
	EntryPlugin EntryType = "plugin"
)

// ListEntry is one item of a directory listing.
type ListEntry struct {
	Name    string    `json:"name"`
	Type    EntryType `json:"type"`
	Size    int64     `json:"size"`
	Owner   string    `json:"owner"`
	ModTime time.Time `json:"mtime"`
}

// IsDir returns true for directory entries.
func (e ListEntry) IsDir() bool {
	return e.Type == EntryDir
}

// Plugin describes a compute plugin registered in the remote catalog.
type Plugin struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// PluginParameter describes one invocation parameter of a plugin.
type PluginParameter struct {
	Name     string `json:"name"`
	Flag     string `json:"flag"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
	Default  string `json:"default,omitempty"`
	Help     string `json:"help,omitempty"`
}

// Feed is a named analysis feed on the server. Feeds appear in the
// resource tree as "feed_<id>" directories.
type Feed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PluginInstance is a single run of a plugin. Instances appear in the
// resource tree as "<plugin>_<id>" directories.
type PluginInstance struct {
	ID            int    `json:"id"`
	PluginName    string `json:"plugin_name"`
	PluginVersion string `json:"plugin_version"`
}
