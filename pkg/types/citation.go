package types

import "slices"

// InformationSourceType classifies information sources (guideline, paper,
// expert consensus). It has no relations, so it is its own shallow form.
type InformationSourceType struct {
	Base `yaml:",inline"`
}

// ToShallow returns a copy of t.
func (t *InformationSourceType) ToShallow() *InformationSourceType {
	return &InformationSourceType{Base: t.Base.clone()}
}

// InformationSourceTypeFromShallow returns a copy of s.
func InformationSourceTypeFromShallow(s *InformationSourceType) (*InformationSourceType, error) {
	return &InformationSourceType{Base: s.Base.clone()}, nil
}

// InformationSource is a publication or other origin of catalog content.
type InformationSource struct {
	Base  `yaml:",inline"`
	URL   string                            `json:"url,omitempty" yaml:"url,omitempty"`
	Types map[string]*InformationSourceType `json:"types,omitempty" yaml:"types,omitempty"`
}

// InformationSourceShallow is the shallow form of InformationSource.
type InformationSourceShallow struct {
	Base  `yaml:",inline"`
	URL   string   `json:"url,omitempty" yaml:"url,omitempty"`
	Types []string `json:"types,omitempty" yaml:"types,omitempty"`
}

// ToShallow replaces the type relation with its names.
func (s *InformationSource) ToShallow() *InformationSourceShallow {
	return &InformationSourceShallow{
		Base:  s.Base.clone(),
		URL:   s.URL,
		Types: namesOf(s.Types),
	}
}

// InformationSourceFromShallow resolves the type names through r.
func InformationSourceFromShallow(s *InformationSourceShallow, r CatalogResolver) (*InformationSource, error) {
	owner := ownerOf(KindInformationSource, s.Name)
	typ, err := resolveNames(r.InformationSourceType, KindInformationSourceType, owner, s.Types)
	if err != nil {
		return nil, err
	}
	return &InformationSource{Base: s.Base.clone(), URL: s.URL, Types: typ}, nil
}

// Citation is a bibliographic reference backed by one or more information
// sources.
type Citation struct {
	Base               `yaml:",inline"`
	Title              string                        `json:"title,omitempty" yaml:"title,omitempty"`
	Authors            []string                      `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year               int                           `json:"year,omitempty" yaml:"year,omitempty"`
	DOI                string                        `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL                string                        `json:"url,omitempty" yaml:"url,omitempty"`
	InformationSources map[string]*InformationSource `json:"information_sources,omitempty" yaml:"information_sources,omitempty"`
}

// CitationShallow is the shallow form of Citation.
type CitationShallow struct {
	Base               `yaml:",inline"`
	Title              string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors            []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year               int      `json:"year,omitempty" yaml:"year,omitempty"`
	DOI                string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL                string   `json:"url,omitempty" yaml:"url,omitempty"`
	InformationSources []string `json:"information_sources,omitempty" yaml:"information_sources,omitempty"`
}

// ToShallow replaces the information source relation with its names.
func (c *Citation) ToShallow() *CitationShallow {
	return &CitationShallow{
		Base:               c.Base.clone(),
		Title:              c.Title,
		Authors:            slices.Clone(c.Authors),
		Year:               c.Year,
		DOI:                c.DOI,
		URL:                c.URL,
		InformationSources: namesOf(c.InformationSources),
	}
}

// CitationFromShallow resolves the information source names through r.
func CitationFromShallow(s *CitationShallow, r CatalogResolver) (*Citation, error) {
	owner := ownerOf(KindCitation, s.Name)
	sources, err := resolveNames(r.InformationSource, KindInformationSource, owner, s.InformationSources)
	if err != nil {
		return nil, err
	}
	return &Citation{
		Base:               s.Base.clone(),
		Title:              s.Title,
		Authors:            slices.Clone(s.Authors),
		Year:               s.Year,
		DOI:                s.DOI,
		URL:                s.URL,
		InformationSources: sources,
	}, nil
}
