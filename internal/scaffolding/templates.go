package scaffolding

// SiteTemplate is a starter site. Files maps slash-separated paths to their
// content. Content is expanded with text/template using [[ ]] delimiters so
// the Liquid {{ }} and {% %} markup passes through untouched.
type SiteTemplate struct {
	Name        string
	Description string
	Files       map[string]string
}

// TemplateContext holds the values available to starter files.
type TemplateContext struct {
	SiteTitle   string
	Description string
	URL         string
	Author      string
	Date        string
}

// GetBuiltinTemplates returns all built-in site templates
func GetBuiltinTemplates() map[string]SiteTemplate {
	return map[string]SiteTemplate{
		"blog":    getBlogTemplate(),
		"minimal": getMinimalTemplate(),
	}
}

const configDocument = `---
title: [[ quote .SiteTitle ]]
description: [[ quote .Description ]]
url: [[ quote .URL ]]
author: [[ quote .Author ]]
posts_per_page: 5
---
Site settings live in the front matter above.
`

const mainLayout = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ title }}</title>
  <link rel="stylesheet" href="/assets/style.css">
  <link rel="alternate" type="application/rss+xml" title="{{ site_title }}" href="{{ rss_feed_url }}">
</head>
<body>
  <header>
    <a class="brand" href="/">{{ site_title }}</a>
    {% render 'nav' %}
  </header>
  <main>
{{ body }}
  </main>
  <footer>
    <p>{{ site_description }} &middot; generated {{ generated_date }}</p>
  </footer>
</body>
</html>
`

const postLayout = `<article class="post">
  <h1>{{ original_title }}</h1>
  <p class="meta">{{ date }} in {{ category }}</p>
{{ body }}
</article>
`

const navInclude = `<nav>
{% for link in data.navigation %}  <a href="{{ link.url }}">{{ link.title }}</a>
{% endfor %}</nav>
`

const postCardInclude = `<li><a href="/posts/{{ post.slug }}.html">{{ post.title }}</a> <time>{{ post.date }}</time></li>
`

const paginationInclude = `<h1>Posts</h1>
<ul class="posts">
{% for post in page_posts %}{% render 'post_card' %}{% endfor %}
</ul>
{% if has_pagination %}<ul class="pagination">
{% if has_previous %}<li><a href="{{ previous_page_url }}">&laquo; Newer</a></li>{% endif %}
{% for link in page_links %}{% if link.current %}<li class="current">{{ link.number }}</li>{% else %}<li><a href="{{ link.url }}">{{ link.number }}</a></li>{% endif %}{% endfor %}
{% if has_next %}<li><a href="{{ next_page_url }}">Older &raquo;</a></li>{% endif %}
</ul>{% endif %}
`

const categoryPaginationInclude = `<h1>{{ category_name }}</h1>
<ul class="posts">
{% for post in page_posts %}{% render 'post_card' %}{% endfor %}
</ul>
{% if has_next %}<a href="{{ next_page_url }}">Older posts</a>{% endif %}
`

const navigationData = `[
  {"title": "Home", "url": "/"},
  {"title": "Posts", "url": "/page1"},
  {"title": "About", "url": "/about.html"}
]
`

const welcomePost = `---
title: [[ quote (print "Welcome to " .SiteTitle) ]]
date: [[ quote .Date ]]
category: General
---
This is your first post. Edit or delete it, then run **quire serve** to
watch your changes appear in the browser.

Posts support *Markdown*, ` + "`code`" + ` and template tags such as
{{ site_title }}.
`

const indexPage = `<h1>{{ site_title }}</h1>
<p>{{ site_description }}</p>
<h2>Recent posts</h2>
<ul class="posts">
{% for post in posts limit: 5 %}{% render 'post_card' %}{% endfor %}
</ul>
`

const aboutPage = `---
title: About
---
# About

[[ .SiteTitle ]] is written by [[ .Author ]].
`

const stylesheet = `body {
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
  line-height: 1.6;
  color: #1f2937;
  max-width: 44rem;
  margin: 0 auto;
  padding: 0 1rem;
}

header { display: flex; justify-content: space-between; align-items: center; }
header nav a { margin-left: 1rem; }
.meta, time { color: #6b7280; font-size: 0.9rem; }
.pagination { display: flex; gap: 0.5rem; list-style: none; padding: 0; }
.pagination .current { font-weight: bold; }
`

func getBlogTemplate() SiteTemplate {
	return SiteTemplate{
		Name:        "blog",
		Description: "Posts, pages, pagination, categories and an RSS feed",
		Files: map[string]string{
			"config.md":                                  configDocument,
			"layouts/main.html":                          mainLayout,
			"layouts/post.html":                          postLayout,
			"includes/nav.liquid":                        navInclude,
			"includes/post_card.liquid":                  postCardInclude,
			"includes/pagination_layout.liquid":          paginationInclude,
			"includes/category_pagination_layout.liquid": categoryPaginationInclude,
			"data/navigation.json":                       navigationData,
			"posts/welcome.md":                           welcomePost,
			"pages/index.liquid":                         indexPage,
			"pages/about.md":                             aboutPage,
			"assets/style.css":                           stylesheet,
		},
	}
}

func getMinimalTemplate() SiteTemplate {
	return SiteTemplate{
		Name:        "minimal",
		Description: "A single page and the main layout",
		Files: map[string]string{
			"config.md":         configDocument,
			"layouts/main.html": "<!DOCTYPE html>\n<html>\n<head><title>{{ title }}</title></head>\n<body>\n{{ body }}\n</body>\n</html>\n",
			"pages/index.md":    "---\ntitle: Home\n---\n# [[ .SiteTitle ]]\n\nWelcome to your new site.\n",
		},
	}
}
