package build

import (
	"encoding/xml"
	"time"

	"github.com/conneroisu/quire/internal/content"
	"github.com/conneroisu/quire/internal/errors"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	AtomLink      atomLink  `xml:"atom:link"`
	Language      string    `xml:"language"`
	Generator     string    `xml:"generator"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Description cdata    `xml:"description"`
	Category    []string `xml:"category,omitempty"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// Feed builds the RSS document for the newest listed posts. bodies maps post
// slugs to their rendered HTML; posts without a body get an empty
// description.
func Feed(siteTitle, siteURL, description string, posts content.Collection, limit int, bodies map[string]string, now time.Time) ([]byte, error) {
	listed := posts.Listed()
	if limit > 0 && len(listed) > limit {
		listed = listed[:limit]
	}

	feed := rssFeed{
		Version: "2.0",
		Atom:    atomNamespace,
		Channel: rssChannel{
			Title:       siteTitle,
			Link:        siteURL,
			Description: description,
			AtomLink: atomLink{
				Href: siteURL + "/" + FeedFile,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Language:      "en-us",
			Generator:     "quire",
			LastBuildDate: now.UTC().Format(time.RFC1123Z),
		},
	}

	for _, post := range listed {
		link := siteURL + "/" + OutputPath(post.Slug(), true)
		published := post.Date()
		if published.IsZero() {
			published = now
		}
		item := rssItem{
			Title:       post.Title(),
			Link:        link,
			GUID:        link,
			PubDate:     published.UTC().Format(time.RFC1123Z),
			Description: cdata{Text: bodies[post.Slug()]},
		}
		if cat := post.Category(); cat != "" {
			item.Category = []string{cat}
		}
		feed.Channel.Items = append(feed.Channel.Items, item)
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeRenderFailed, "failed to encode feed", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func (rc *renderContext) writeFeed(now time.Time) (bool, error) {
	bodies := map[string]string{}
	rc.bodies.Range(func(k, v interface{}) bool {
		bodies[k.(string)] = v.(string)
		return true
	})

	globals := rc.pipe.Globals()
	data, err := Feed(
		rc.siteName,
		globals.ResolveString("site_url"),
		globals.ResolveString("site_description"),
		rc.site.Posts,
		rc.opts.RSSItems,
		bodies,
		now,
	)
	if err != nil {
		return false, err
	}
	return rc.writer.WriteFile(FeedFile, data)
}
