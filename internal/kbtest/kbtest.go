// Package kbtest provides a small colonoscopy knowledge base for tests.
package kbtest

import (
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Names used by the sample knowledge base.
const (
	Examination             = "colonoscopy"
	Finding                 = "colon_lesion_polyp"
	ClassificationParis     = "paris"
	ChoiceParisIs           = "paris_is"
	ChoiceParisIIa          = "paris_iia"
	ClassificationSite      = "location"
	ChoiceSigmoid           = "colon_sigmoid"
	DescriptorSize          = "polyp_size_mm"
	DescriptorSubtype       = "paris_subtype"
	DescriptorResected      = "polyp_resected"
	Indication              = "screening_colonoscopy"
	Intervention            = "polypectomy"
	UnitMillimetre          = "mm"
	ClassificationBowelPrep = "boston_bowel_prep"
)

func float(v float64) *float64 { return &v }

func base(name string) types.Base { return types.Base{Name: name} }

// Sample returns a fresh shallow knowledge base. Every call builds new
// records so tests may mutate the result.
func Sample() *types.KnowledgeBase {
	kb := types.NewKnowledgeBase()
	records := []any{
		&types.InformationSourceType{Base: base("guideline")},
		&types.InformationSourceShallow{Base: base("esge"), URL: "https://www.esge.com", Types: []string{"guideline"}},
		&types.CitationShallow{Base: base("esge_polypectomy_2017"), Title: "Colorectal polypectomy and EMR",
			Year: 2017, InformationSources: []string{"esge"}},

		&types.UnitType{Base: base("length")},
		&types.UnitShallow{Base: base(UnitMillimetre), Abbreviation: "mm", Types: []string{"length"}},

		&types.ClassificationChoiceDescriptorShallow{Base: base(DescriptorSize), ValueKind: types.DescriptorNumeric,
			Unit: UnitMillimetre, Min: float(0), Max: float(100)},
		&types.ClassificationChoiceDescriptorShallow{Base: base(DescriptorSubtype), ValueKind: types.DescriptorSelection,
			Options: []string{"Is", "IIa"}},
		&types.ClassificationChoiceDescriptorShallow{Base: base(DescriptorResected), ValueKind: types.DescriptorBoolean},

		&types.ClassificationChoiceShallow{Base: base(ChoiceParisIs),
			Descriptors: []string{DescriptorSubtype, DescriptorResected, DescriptorSize}},
		&types.ClassificationChoiceShallow{Base: base(ChoiceParisIIa), Descriptors: []string{DescriptorSize}},
		&types.ClassificationChoiceShallow{Base: base(ChoiceSigmoid)},
		&types.ClassificationChoiceShallow{Base: base("bbps_3")},

		&types.ClassificationType{Base: base("morphology")},
		&types.ClassificationShallow{Base: base(ClassificationParis),
			Choices: []string{ChoiceParisIIa, ChoiceParisIs}, Types: []string{"morphology"}},
		&types.ClassificationShallow{Base: base(ClassificationSite), Choices: []string{ChoiceSigmoid}},
		&types.ClassificationShallow{Base: base(ClassificationBowelPrep), Choices: []string{"bbps_3"}},

		&types.FindingType{Base: base("lesion")},
		&types.InterventionType{Base: base("resection")},
		&types.InterventionShallow{Base: base(Intervention), Types: []string{"resection"}},
		&types.FindingShallow{Base: types.Base{Name: Finding, Names: map[string]string{"de": "Polyp"}},
			Classifications: []string{ClassificationSite, ClassificationParis},
			Types:           []string{"lesion"}, Interventions: []string{Intervention}},
		&types.ExaminationShallow{Base: base(Examination), Findings: []string{Finding}},

		&types.IndicationType{Base: base("screening")},
		&types.IndicationShallow{Base: base(Indication), Types: []string{"screening"},
			Examinations: []string{Examination}},
	}
	for _, r := range records {
		if err := kb.Add(r); err != nil {
			panic(err)
		}
	}
	return kb
}

// Catalog returns the materialized sample knowledge base.
func Catalog() *types.Catalog {
	c, err := Sample().Materialize()
	if err != nil {
		panic(err)
	}
	return c
}
