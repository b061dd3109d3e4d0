package model

import "encoding/json"

// ReviewInput is one review as delivered by the extraction producer.
type ReviewInput struct {
	Reviewer   string `json:"reviewer"`
	Rating     string `json:"rating"`
	Text       string `json:"text"`
	ReviewDate string `json:"review_date"`
}

// BusinessExtraction is the payload an upstream producer submits for caching.
// The whole structure is retained verbatim as the stored payload blob in
// addition to the individually indexed scalar fields.
type BusinessExtraction struct {
	Success bool   `json:"success"`
	PlaceID string `json:"place_id,omitempty"`
	CID     *int64 `json:"cid,omitempty"`

	Name        string   `json:"name"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Category    string   `json:"category"`
	Rating      string   `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Website     string   `json:"website"`
	Hours       string   `json:"hours"`
	PriceRange  string   `json:"price_range"`

	Reviews []ReviewInput `json:"reviews,omitempty"`
	Photos  []string      `json:"photos,omitempty"`

	DataQualityScore      *int    `json:"data_quality_score,omitempty"`
	ExtractorVersion      string  `json:"extractor_version,omitempty"`
	ExtractionTimeSeconds float64 `json:"extraction_time_seconds,omitempty"`
}

// ResolvePlaceID returns the producer-supplied place_id, or derives a stable
// one from name/address/phone when absent.
func (e *BusinessExtraction) ResolvePlaceID() string {
	if e.PlaceID != "" {
		return e.PlaceID
	}
	return DerivePlaceID(e.Name, e.Address, e.Phone)
}

// ToPayload serializes the full extraction into the blob stored alongside the
// indexed scalar columns.
func (e *BusinessExtraction) ToPayload() (JSONMap, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	var payload JSONMap
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ToRecordMap flattens the extraction into a field map for quality validation.
func (e *BusinessExtraction) ToRecordMap() map[string]interface{} {
	record := map[string]interface{}{
		"place_id":     e.ResolvePlaceID(),
		"name":         e.Name,
		"phone":        e.Phone,
		"address":      e.Address,
		"category":     e.Category,
		"rating":       e.Rating,
		"review_count": e.ReviewCount,
		"website":      e.Website,
		"hours":        e.Hours,
		"price_range":  e.PriceRange,
	}
	if e.Latitude != nil {
		record["latitude"] = *e.Latitude
	}
	if e.Longitude != nil {
		record["longitude"] = *e.Longitude
	}
	return record
}
