package resource

import "github.com/simp-lee/shopbase/internal/domain"

// SeoInput is the request shape of domain.SeoMetadata. Omitted flags
// default to true.
type SeoInput struct {
	MetaTitle            string `json:"metaTitle" validate:"max=70"`
	MetaDescription      string `json:"metaDescription" validate:"max=160"`
	Keywords             string `json:"keywords" validate:"max=255"`
	CanonicalURL         string `json:"canonicalUrl" validate:"omitempty,max=2048,url"`
	Robots               string `json:"seoMetaRobots" validate:"max=64"`
	SchemaJSON           string `json:"seoSchemaJson" validate:"jsondoc"`
	AutoGenerateSnippet  *bool  `json:"autoGenerateSnippet"`
	AutoGenerateHeadTags *bool  `json:"autoGenerateHeadTags"`
	IncludeInSitemap     *bool  `json:"includeInSitemap"`
}

// Metadata converts the input into the stored value object.
func (in SeoInput) Metadata() domain.SeoMetadata {
	m := domain.DefaultSeoMetadata()
	m.MetaTitle = in.MetaTitle
	m.MetaDescription = in.MetaDescription
	m.Keywords = in.Keywords
	m.CanonicalURL = in.CanonicalURL
	m.Robots = in.Robots
	m.SchemaJSON = in.SchemaJSON
	if in.AutoGenerateSnippet != nil {
		m.AutoGenerateSnippet = *in.AutoGenerateSnippet
	}
	if in.AutoGenerateHeadTags != nil {
		m.AutoGenerateHeadTags = *in.AutoGenerateHeadTags
	}
	if in.IncludeInSitemap != nil {
		m.IncludeInSitemap = *in.IncludeInSitemap
	}
	return m
}
