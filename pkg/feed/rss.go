package feed

import (
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"io"
	"strconv"
	"strings"

	"github.com/autobrr/feedbot/pkg/apperrors"
)

// document mirrors the fixed, non-standard RSS envelope this agent
// consumes: document.channel.item[], every field optional except the
// channel/item presence itself.
type document struct {
	XMLName xml.Name `xml:"rss"`
	Channel *channel `xml:"channel"`
}

type channel struct {
	Title string `xml:"title"`
	Item  []item `xml:"item"`
}

type item struct {
	Title     *string       `xml:"title"`
	Link      *string       `xml:"link"`
	Tags      *string       `xml:"tags"`
	Torrent   *torrentBlock `xml:"torrent"`
	Enclosure *enclosure    `xml:"enclosure"`
}

type torrentBlock struct {
	FileName      *string `xml:"fileName"`
	InfoHash      *string `xml:"infoHash"`
	ContentLength *uint64 `xml:"contentLength"`
}

type enclosure struct {
	URL *string `xml:"url,attr"`
}

// Decode turns a byte stream into a list of Announcements. If channel or
// channel.item is absent the whole batch fails with ErrDecode. Per item,
// an item lacking a download URL (no enclosure URL and no link) is
// skipped rather than failing the batch.
func Decode(r io.Reader) ([]Announcement, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDecode, err)
	}

	if doc.Channel == nil || len(doc.Channel.Item) == 0 {
		return nil, fmt.Errorf("%w: channel or channel.item missing", apperrors.ErrDecode)
	}

	out := make([]Announcement, 0, len(doc.Channel.Item))
	for _, it := range doc.Channel.Item {
		ann, err := newAnnouncement(it)
		if err != nil {
			continue
		}
		out = append(out, ann)
	}

	return out, nil
}

func newAnnouncement(it item) (Announcement, error) {
	link := downloadURL(it)
	if link == "" {
		return Announcement{}, apperrors.ErrMissingField
	}

	title := ""
	if it.Title != nil {
		title = *it.Title
	}

	tags := make(map[string]struct{})
	if it.Tags != nil {
		for _, t := range strings.Fields(*it.Tags) {
			tags[strings.ToLower(t)] = struct{}{}
		}
	}

	var size *int64
	infoHash := ""
	if it.Torrent != nil {
		if it.Torrent.ContentLength != nil {
			s := int64(*it.Torrent.ContentLength)
			size = &s
		}
		if it.Torrent.InfoHash != nil {
			infoHash = *it.Torrent.InfoHash
		}
	}

	return Announcement{
		Title:       strings.ToLower(title),
		RawTitle:    title,
		Tags:        tags,
		DownloadURL: link,
		Size:        size,
		InfoHash:    infoHash,
		Fingerprint: fingerprint(it),
	}, nil
}

func downloadURL(it item) string {
	if it.Enclosure != nil && it.Enclosure.URL != nil && *it.Enclosure.URL != "" {
		return *it.Enclosure.URL
	}
	if it.Link != nil {
		return *it.Link
	}
	return ""
}

// fingerprint hashes the item's raw, pre-normalisation field values so
// that identical re-announcements produce identical fingerprints across
// runs and across workers, regardless of how the title/tags are later
// cased for matching.
func fingerprint(it item) uint64 {
	h := fnv.New64a()

	writeOptional(h, it.Title)
	writeOptional(h, it.Link)
	writeOptional(h, it.Tags)

	if it.Torrent != nil {
		writeOptional(h, it.Torrent.FileName)
		writeOptional(h, it.Torrent.InfoHash)
		if it.Torrent.ContentLength != nil {
			h.Write([]byte(strconv.FormatUint(*it.Torrent.ContentLength, 10)))
		}
		h.Write([]byte{'|'})
	} else {
		h.Write([]byte{0, '|'})
	}

	if it.Enclosure != nil {
		writeOptional(h, it.Enclosure.URL)
	} else {
		h.Write([]byte{0, '|'})
	}

	return h.Sum64()
}

func writeOptional(h interface{ Write([]byte) (int, error) }, s *string) {
	if s == nil {
		h.Write([]byte{0, '|'})
		return
	}
	h.Write([]byte(*s))
	h.Write([]byte{'|'})
}
