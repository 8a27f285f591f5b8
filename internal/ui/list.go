package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/rowanvale/tracklink/internal/repositories"
)

var (
	_ list.Item = linkageItem{}
)

// linkageItem wraps [repositories.LinkageDetail] to implement [list.Item].
type linkageItem struct {
	detail repositories.LinkageDetail
}

// remoteTitle returns the title/artist of the linked provider row, preferring
// the tidal side.
func (i linkageItem) remoteTitle() (string, string) {
	if i.detail.Tidal != nil {
		return i.detail.Tidal.Title, i.detail.Tidal.Artist
	}
	if i.detail.YouTube != nil {
		return i.detail.YouTube.Title, i.detail.YouTube.Artist
	}
	return "", ""
}

func (i linkageItem) FilterValue() string {
	title, _ := i.remoteTitle()
	return title
}

func (i linkageItem) Title() string {
	title, artist := i.remoteTitle()
	if title == "" {
		return fmt.Sprintf("linkage #%d", i.detail.Linkage.ID)
	}
	if artist != "" {
		return fmt.Sprintf("%s - %s", artist, title)
	}
	return title
}

func (i linkageItem) Description() string {
	desc := fmt.Sprintf("%s • %.0f%%", i.detail.Linkage.Source, i.detail.Linkage.Confidence*100)
	if i.detail.Local != nil {
		desc = fmt.Sprintf("%s • local: %s", desc, i.detail.Local.Title)
	} else {
		desc = fmt.Sprintf("%s • unanchored", desc)
	}
	return desc
}
