package scorm

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

const (
	ManifestName = "imsmanifest.xml"

	orgIdentifier      = "ORG-1"
	itemIdentifier     = "ITEM-1"
	resourceIdentifier = "RES-SCO-1"
)

// ManifestSpec is the version-independent input of the manifest builder.
type ManifestSpec struct {
	Identifier  string
	Title       string
	Description string
	Duration    int // minutes, 0 = absent
	EntryHref   string
	Files       []string
}

// BuildManifest renders imsmanifest.xml for rec using dialect d. files are
// the package-relative paths of every content file; entry must be one of them.
func BuildManifest(rec Record, d Dialect, entry string, files []string) ([]byte, error) {
	ms := ManifestSpec{
		Identifier:  ManifestIdentifier(rec),
		Title:       rec.Title,
		Description: rec.Description,
		Duration:    rec.Duration,
		EntryHref:   entry,
		Files:       files,
	}
	b, err := xml.MarshalIndent(d.ManifestRoot(ms), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(xml.Header) + len(b) + 1)
	buf.WriteString(xml.Header)
	buf.Write(b)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ManifestIdentifier names the package for the LMS. The fingerprint suffix
// keeps packages that share a title apart while rebuilds keep the same name.
func ManifestIdentifier(rec Record) string {
	rec = rec.Normalize()
	return "MANIFEST-" + Slug(rec.Title) + "-" + Fingerprint(rec, Options{})[:12]
}

// learningTime renders a minute count as an ISO-8601 duration.
func learningTime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("PT%dM", minutes)
}

// --- shared organization/resource model ---

type organizations struct {
	Default      string         `xml:"default,attr"`
	Organization []organization `xml:"organization"`
}

type organization struct {
	Identifier string `xml:"identifier,attr"`
	Title      string `xml:"title"`
	Items      []item `xml:"item"`
}

type item struct {
	Identifier    string `xml:"identifier,attr"`
	IdentifierRef string `xml:"identifierref,attr"`
	IsVisible     string `xml:"isvisible,attr"`
	Title         string `xml:"title"`
}

type fileRef struct {
	Href string `xml:"href,attr"`
}

func singleOrganization(title string) organizations {
	return organizations{
		Default: orgIdentifier,
		Organization: []organization{{
			Identifier: orgIdentifier,
			Title:      title,
			Items: []item{{
				Identifier:    itemIdentifier,
				IdentifierRef: resourceIdentifier,
				IsVisible:     "true",
				Title:         title,
			}},
		}},
	}
}

func fileRefs(files []string) []fileRef {
	out := make([]fileRef, 0, len(files))
	for _, f := range files {
		out = append(out, fileRef{Href: f})
	}
	return out
}

// --- SCORM 1.2 (CAM 1.2, IMS CP 1.1.2) ---

type manifest12 struct {
	XMLName        xml.Name      `xml:"manifest"`
	Identifier     string        `xml:"identifier,attr"`
	Version        string        `xml:"version,attr"`
	Xmlns          string        `xml:"xmlns,attr"`
	XmlnsAdlcp     string        `xml:"xmlns:adlcp,attr"`
	XmlnsImsmd     string        `xml:"xmlns:imsmd,attr"`
	XmlnsXsi       string        `xml:"xmlns:xsi,attr"`
	SchemaLocation string        `xml:"xsi:schemaLocation,attr"`
	Metadata       metadata12    `xml:"metadata"`
	Organizations  organizations `xml:"organizations"`
	Resources      []resource12  `xml:"resources>resource"`
}

type metadata12 struct {
	Schema        string `xml:"schema"`
	SchemaVersion string `xml:"schemaversion"`
	LOM           lom12  `xml:"imsmd:lom"`
}

type lom12 struct {
	Title       string           `xml:"imsmd:general>imsmd:title>imsmd:langstring"`
	Description string           `xml:"imsmd:general>imsmd:description>imsmd:langstring"`
	Educational *lomEducational12 `xml:"imsmd:educational,omitempty"`
}

type lomEducational12 struct {
	TypicalLearningTime string `xml:"imsmd:typicallearningtime>imsmd:datetime"`
}

type resource12 struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	ScormType  string    `xml:"adlcp:scormtype,attr"`
	Href       string    `xml:"href,attr"`
	Files      []fileRef `xml:"file"`
}

func newManifest12(s ManifestSpec) manifest12 {
	m := manifest12{
		Identifier: s.Identifier,
		Version:    "1.0",
		Xmlns:      "http://www.imsproject.org/xsd/imscp_rootv1p1p2",
		XmlnsAdlcp: "http://www.adlnet.org/xsd/adlcp_rootv1p2",
		XmlnsImsmd: "http://www.imsglobal.org/xsd/imsmd_rootv1p2p1",
		XmlnsXsi:   "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://www.imsproject.org/xsd/imscp_rootv1p1p2 imscp_rootv1p1p2.xsd " +
			"http://www.imsglobal.org/xsd/imsmd_rootv1p2p1 imsmd_rootv1p2p1.xsd " +
			"http://www.adlnet.org/xsd/adlcp_rootv1p2 adlcp_rootv1p2.xsd",
		Metadata: metadata12{
			Schema:        "ADL SCORM",
			SchemaVersion: "1.2",
			LOM:           lom12{Title: s.Title, Description: s.Description},
		},
		Organizations: singleOrganization(s.Title),
		Resources: []resource12{{
			Identifier: resourceIdentifier,
			Type:       "webcontent",
			ScormType:  "sco",
			Href:       s.EntryHref,
			Files:      fileRefs(s.Files),
		}},
	}
	if d := learningTime(s.Duration); d != "" {
		m.Metadata.LOM.Educational = &lomEducational12{TypicalLearningTime: d}
	}
	return m
}

// --- SCORM 2004 4th edition (IMS CP 1.1.4) ---

type manifest2004 struct {
	XMLName        xml.Name       `xml:"manifest"`
	Identifier     string         `xml:"identifier,attr"`
	Version        string         `xml:"version,attr"`
	Xmlns          string         `xml:"xmlns,attr"`
	XmlnsAdlcp     string         `xml:"xmlns:adlcp,attr"`
	XmlnsAdlseq    string         `xml:"xmlns:adlseq,attr"`
	XmlnsAdlnav    string         `xml:"xmlns:adlnav,attr"`
	XmlnsImsss     string         `xml:"xmlns:imsss,attr"`
	XmlnsXsi       string         `xml:"xmlns:xsi,attr"`
	SchemaLocation string         `xml:"xsi:schemaLocation,attr"`
	Metadata       metadata2004   `xml:"metadata"`
	Organizations  organizations  `xml:"organizations"`
	Resources      []resource2004 `xml:"resources>resource"`
}

type metadata2004 struct {
	Schema        string  `xml:"schema"`
	SchemaVersion string  `xml:"schemaversion"`
	LOM           lom2004 `xml:"lom"`
}

type lom2004 struct {
	Xmlns       string             `xml:"xmlns,attr"`
	Title       string             `xml:"general>title>string"`
	Description string             `xml:"general>description>string"`
	Educational *lomEducational2004 `xml:"educational,omitempty"`
}

type lomEducational2004 struct {
	TypicalLearningTime string `xml:"typicalLearningTime>duration"`
}

type resource2004 struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	ScormType  string    `xml:"adlcp:scormType,attr"`
	Href       string    `xml:"href,attr"`
	Files      []fileRef `xml:"file"`
}

func newManifest2004(s ManifestSpec) manifest2004 {
	m := manifest2004{
		Identifier:  s.Identifier,
		Version:     "1",
		Xmlns:       "http://www.imsglobal.org/xsd/imscp_v1p1",
		XmlnsAdlcp:  "http://www.adlnet.org/xsd/adlcp_v1p3",
		XmlnsAdlseq: "http://www.adlnet.org/xsd/adlseq_v1p3",
		XmlnsAdlnav: "http://www.adlnet.org/xsd/adlnav_v1p3",
		XmlnsImsss:  "http://www.imsglobal.org/xsd/imsss",
		XmlnsXsi:    "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://www.imsglobal.org/xsd/imscp_v1p1 imscp_v1p1.xsd " +
			"http://www.adlnet.org/xsd/adlcp_v1p3 adlcp_v1p3.xsd " +
			"http://www.adlnet.org/xsd/adlseq_v1p3 adlseq_v1p3.xsd " +
			"http://www.adlnet.org/xsd/adlnav_v1p3 adlnav_v1p3.xsd " +
			"http://www.imsglobal.org/xsd/imsss imsss_v1p0.xsd " +
			"http://ltsc.ieee.org/xsd/LOM lom.xsd",
		Metadata: metadata2004{
			Schema:        "ADL SCORM",
			SchemaVersion: "2004 4th Edition",
			LOM: lom2004{
				Xmlns:       "http://ltsc.ieee.org/xsd/LOM",
				Title:       s.Title,
				Description: s.Description,
			},
		},
		Organizations: singleOrganization(s.Title),
		Resources: []resource2004{{
			Identifier: resourceIdentifier,
			Type:       "webcontent",
			ScormType:  "sco",
			Href:       s.EntryHref,
			Files:      fileRefs(s.Files),
		}},
	}
	if d := learningTime(s.Duration); d != "" {
		m.Metadata.LOM.Educational = &lomEducational2004{TypicalLearningTime: d}
	}
	return m
}
