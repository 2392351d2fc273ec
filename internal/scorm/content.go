package scorm

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	EntryFile  = ContentDir + "/index.html"
	BridgeFile = ContentDir + "/scorm-bridge.js"
	PlayerFile = ContentDir + "/player.js"
	StylesFile = ContentDir + "/styles.css"
)

// Raw HTML in the end message is dropped; goldmark only emits it with html.WithUnsafe.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Content is what the learner's browser loads, ready for the writer.
type Content struct {
	Entry string
	Files []File // sorted by Path
}

func (c Content) Paths() []string {
	out := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		out = append(out, f.Path)
	}
	return out
}

// IsFrameURL reports whether iframe content should be loaded as a URL rather
// than inlined: only absolute http(s) URLs with a host qualify.
func IsFrameURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n<>\"") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type pageData struct {
	Lang       string
	Title      string
	Layout     string
	StylesHref string
	BridgeHref string
	PlayerHref string

	FrameURL   string
	InlineHTML template.HTML
	VideoID    string

	HasLogo    bool
	Prompt     string
	ButtonText string
	EndHTML    template.HTML
}

type styleData struct {
	HeaderBgColor   string
	HeaderTextColor string
	ButtonBgColor   string
	ButtonTextColor string
	LogoURL         string
}

// AssembleContent renders the learner-facing files for rec. bridge is the
// runtime bridge source and logo the already planned logo reference.
func AssembleContent(rec Record, bridge string, logo AssetRef) (Content, error) {
	trigger := rec.Trigger()
	player, err := buildPlayer(trigger)
	if err != nil {
		return Content{}, err
	}

	page := pageData{
		Lang:       "en",
		Title:      rec.Title,
		Layout:     "frame",
		StylesHref: relative(StylesFile),
		BridgeHref: relative(BridgeFile),
		PlayerHref: relative(PlayerFile),
	}
	style := styleData{
		HeaderBgColor:   DefaultHeaderBgColor,
		HeaderTextColor: DefaultHeaderTextColor,
		ButtonBgColor:   DefaultButtonBgColor,
		ButtonTextColor: DefaultButtonTextColor,
	}

	switch rec.PackageType {
	case PackageYouTube:
		page.Layout = "video"
		page.VideoID = rec.YouTubeVideoID
	default:
		if IsFrameURL(rec.IframeContent) {
			page.FrameURL = strings.TrimSpace(rec.IframeContent)
		} else {
			// author-controlled markup, embedded as-is
			page.InlineHTML = template.HTML(rec.IframeContent)
		}
	}

	var assets []File
	if rec.PackageType == PackageIframeWithCode {
		end, err := renderMarkdown(rec.EndMessage)
		if err != nil {
			return Content{}, err
		}
		page.Layout = "code"
		page.Prompt = rec.CodePromptMessage
		page.ButtonText = rec.ButtonText
		page.EndHTML = end
		page.HasLogo = logo.CSSURL != ""

		style = styleData{
			HeaderBgColor:   rec.HeaderBgColor,
			HeaderTextColor: rec.HeaderTextColor,
			ButtonBgColor:   rec.ButtonBgColor,
			ButtonTextColor: rec.ButtonTextColor,
			LogoURL:         logo.CSSURL,
		}
		if logo.File != nil {
			assets = append(assets, *logo.File)
		}
	}

	var html bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&html, "index.html.tmpl", page); err != nil {
		return Content{}, fmt.Errorf("render page: %w", err)
	}
	var css bytes.Buffer
	if err := scriptTemplates.ExecuteTemplate(&css, "styles.css.tmpl", style); err != nil {
		return Content{}, fmt.Errorf("render styles: %w", err)
	}

	files := append([]File{
		{Path: EntryFile, Data: html.Bytes()},
		{Path: BridgeFile, Data: []byte(bridge)},
		{Path: PlayerFile, Data: []byte(player)},
		{Path: StylesFile, Data: css.Bytes()},
	}, assets...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return Content{Entry: EntryFile, Files: files}, nil
}

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render end message: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// relative turns a package path into a path relative to the entry file.
func relative(p string) string {
	return strings.TrimPrefix(p, ContentDir+"/")
}
