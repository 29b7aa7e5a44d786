package api

import (
	"fmt"
	"strconv"

	"github.com/windwalker/windwalker/internal/model"
)

type tribeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type treatySummary struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	SignedDate *string    `json:"signed_date"`
	Tribes     []tribeRef `json:"tribes"`
	Status     string     `json:"status"`
	Certainty  string     `json:"certainty"`
	KapplerRef *string    `json:"kappler_ref"`
}

type sourceRef struct {
	Name         string  `json:"name"`
	SourceType   string  `json:"source_type"`
	URL          string  `json:"url"`
	Reliability  float64 `json:"reliability"`
	AccessedDate *string `json:"accessed_date"`
}

// treatyDetail keeps the placeholder fields the web client reads even
// though ingestion never fills them.
type treatyDetail struct {
	ID                     string      `json:"id"`
	Name                   string      `json:"name"`
	AlternateNames         []string    `json:"alternate_names"`
	SignedDate             *string     `json:"signed_date"`
	SignedDateText         *string     `json:"signed_date_text"`
	RatifiedDate           *string     `json:"ratified_date"`
	ProclaimedDate         *string     `json:"proclaimed_date"`
	Tribes                 []tribeRef  `json:"tribes"`
	USCommissioners        []string    `json:"us_commissioners"`
	TribalSignatories      []string    `json:"tribal_signatories"`
	Status                 string      `json:"status"`
	Violations             []string    `json:"violations"`
	AffectingLaws          []string    `json:"affecting_laws"`
	Preamble               *string     `json:"preamble"`
	Articles               []string    `json:"articles"`
	CededTerritoryAcres    *float64    `json:"ceded_territory_acres"`
	ReservedTerritoryAcres *float64    `json:"reserved_territory_acres"`
	BoundaryCertainty      string      `json:"boundary_certainty"`
	Sources                []sourceRef `json:"sources"`
	KapplerCitation        *string     `json:"kappler_citation"`
	StatutesAtLarge        *string     `json:"statutes_at_large"`
}

type searchResult struct {
	EntityType string  `json:"entity_type"`
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Snippet    *string `json:"snippet"`
	URL        string  `json:"url"`
	Score      float64 `json:"score"`
}

func status(validated bool) string {
	if validated {
		return "Active"
	}
	return "Unknown"
}

func certainty(validated bool) string {
	if validated {
		return "Verified"
	}
	return "Reported"
}

// kapplerRef renders "Kappler Vol. V, p. P", or nil without a volume.
func kapplerRef(rec model.TreatyRecord) *string {
	if rec.KapplerVolume == nil || *rec.KapplerVolume == 0 {
		return nil
	}
	s := fmt.Sprintf("Kappler Vol. %d", *rec.KapplerVolume)
	if rec.KapplerPage != nil {
		s += fmt.Sprintf(", p. %d", *rec.KapplerPage)
	}
	return &s
}

func tribeRefs(names []string) []tribeRef {
	refs := make([]tribeRef, 0, len(names))
	for _, n := range names {
		refs = append(refs, tribeRef{ID: n, Name: n})
	}
	return refs
}

func toSummary(rec model.TreatyRecord) treatySummary {
	return treatySummary{
		ID:         strconv.FormatInt(rec.ID, 10),
		Name:       rec.Title,
		SignedDate: model.FormatDate(rec.DateSigned),
		Tribes:     tribeRefs(rec.TribalParties),
		Status:     status(rec.IsValidated),
		Certainty:  certainty(rec.IsValidated),
		KapplerRef: kapplerRef(rec),
	}
}

func toDetail(d model.TreatyDetail) treatyDetail {
	rec := d.TreatyRecord
	return treatyDetail{
		ID:                strconv.FormatInt(rec.ID, 10),
		Name:              rec.Title,
		AlternateNames:    []string{},
		SignedDate:        model.FormatDate(rec.DateSigned),
		SignedDateText:    rec.DateSignedText,
		Tribes:            tribeRefs(rec.TribalParties),
		USCommissioners:   []string{},
		TribalSignatories: []string{},
		Status:            status(rec.IsValidated),
		Violations:        []string{},
		AffectingLaws:     []string{},
		Articles:          []string{},
		BoundaryCertainty: certainty(rec.IsValidated),
		Sources: []sourceRef{{
			Name:        d.SourceName,
			SourceType:  "Government",
			URL:         rec.SourceURL,
			Reliability: d.SourceReliability,
		}},
		KapplerCitation: kapplerRef(rec),
	}
}

func toSearchResult(rec model.TreatyRecord) searchResult {
	id := strconv.FormatInt(rec.ID, 10)
	return searchResult{
		EntityType: "treaty",
		ID:         id,
		Title:      rec.Title,
		URL:        "/treaties/" + id,
		Score:      1.0,
	}
}
