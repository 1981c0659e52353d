// Package registry talks to the hospital's external patient registry over its
// REST API. The registry is the system of record for patient identity: local
// rows mirror it and are refreshed by Sync.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Patient is the registry's view of a patient, flattened to the fields the
// directory stores. Raw keeps the full registry document for later detail
// views without a second round trip.
type Patient struct {
	UUID        string
	Display     string
	Identifier  string
	Identifiers []string
	GivenName   string
	FamilyName  string
	Gender      string
	BirthDate   string
	Raw         json.RawMessage
}

// NewPatient is a registration request sent to the registry.
type NewPatient struct {
	GivenName   string
	FamilyName  string
	Gender      string
	BirthDate   string
	Identifier  string
	AddressLine string
	City        string
	Phone       string
}

// StatusError reports a non-2xx registry response. Handlers relay the status
// so callers can tell a registry rejection from a local failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry returned status %d: %s", e.StatusCode, e.Body)
}

// Client is a basic-auth HTTP client for the registry API.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: 20 * time.Second},
	}
}

// registryPatient mirrors the registry's JSON document shape.
type registryPatient struct {
	UUID        string `json:"uuid"`
	Display     string `json:"display"`
	Identifiers []struct {
		Identifier string `json:"identifier"`
	} `json:"identifiers"`
	Person struct {
		Gender        string `json:"gender"`
		BirthDate     string `json:"birthdate"`
		PreferredName struct {
			GivenName  string `json:"givenName"`
			FamilyName string `json:"familyName"`
		} `json:"preferredName"`
	} `json:"person"`
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(body)
		if len(detail) > 1000 {
			detail = detail[:1000]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: detail}
	}
	return body, nil
}

func decodePatient(raw json.RawMessage) (Patient, error) {
	var rp registryPatient
	if err := json.Unmarshal(raw, &rp); err != nil {
		return Patient{}, fmt.Errorf("decode registry patient: %w", err)
	}
	if rp.UUID == "" {
		return Patient{}, fmt.Errorf("registry patient has no uuid")
	}
	p := Patient{
		UUID:       rp.UUID,
		Display:    rp.Display,
		GivenName:  rp.Person.PreferredName.GivenName,
		FamilyName: rp.Person.PreferredName.FamilyName,
		Gender:     rp.Person.Gender,
		BirthDate:  rp.Person.BirthDate,
		Raw:        raw,
	}
	for _, ident := range rp.Identifiers {
		if ident.Identifier != "" {
			p.Identifiers = append(p.Identifiers, ident.Identifier)
		}
	}
	if len(p.Identifiers) > 0 {
		p.Identifier = p.Identifiers[0]
	}
	return p, nil
}

// SearchPatients fetches one page of patients matching query. An empty query
// lists without a filter.
func (c *Client) SearchPatients(ctx context.Context, query string, limit, startIndex int) ([]Patient, error) {
	params := url.Values{}
	params.Set("v", "full")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("startIndex", strconv.Itoa(startIndex))
	if query != "" {
		params.Set("q", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/patient?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build registry search request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var page struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode registry search response: %w", err)
	}

	patients := make([]Patient, 0, len(page.Results))
	for _, raw := range page.Results {
		p, err := decodePatient(raw)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// GetPatient fetches a single patient document by registry uuid.
func (c *Client) GetPatient(ctx context.Context, patientUUID string) (Patient, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/patient/"+url.PathEscape(patientUUID)+"?v=full", nil)
	if err != nil {
		return Patient{}, fmt.Errorf("build registry get request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return Patient{}, err
	}
	return decodePatient(body)
}

// CreatePatient registers a patient in the registry and returns the created
// document. The registry assigns the uuid and may normalize the identifier,
// so callers must store what comes back, not what was sent.
func (c *Client) CreatePatient(ctx context.Context, np NewPatient) (Patient, error) {
	person := map[string]interface{}{
		"names": []map[string]interface{}{
			{"givenName": np.GivenName, "familyName": np.FamilyName, "preferred": true},
		},
		"gender":    np.Gender,
		"birthdate": np.BirthDate,
	}
	if np.AddressLine != "" || np.City != "" {
		person["addresses"] = []map[string]interface{}{
			{"address1": np.AddressLine, "cityVillage": np.City, "preferred": true},
		}
	}
	if np.Phone != "" {
		person["attributes"] = []map[string]interface{}{
			{"attributeType": "phone", "value": np.Phone},
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"person": person,
		"identifiers": []map[string]interface{}{
			{"identifier": np.Identifier, "preferred": true},
		},
	})
	if err != nil {
		return Patient{}, fmt.Errorf("encode registry create payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/patient", bytes.NewReader(payload))
	if err != nil {
		return Patient{}, fmt.Errorf("build registry create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return Patient{}, err
	}
	return decodePatient(body)
}

// Sync walks the registry's paged search and hands every patient to upsert.
// It stops at an empty page, a page shorter than limitPerCall, or after
// maxTotal patients, and returns how many were processed. The first error,
// registry-side or upsert-side, aborts the walk.
func (c *Client) Sync(ctx context.Context, query string, limitPerCall, maxTotal int, upsert func(Patient) error) (int, error) {
	if limitPerCall <= 0 {
		limitPerCall = 50
	}

	synced := 0
	for startIndex := 0; synced < maxTotal; startIndex += limitPerCall {
		page, err := c.SearchPatients(ctx, query, limitPerCall, startIndex)
		if err != nil {
			return synced, err
		}
		if len(page) == 0 {
			break
		}

		for _, p := range page {
			if synced >= maxTotal {
				return synced, nil
			}
			if err := upsert(p); err != nil {
				return synced, fmt.Errorf("store patient %s: %w", p.UUID, err)
			}
			synced++
		}

		if len(page) < limitPerCall {
			break
		}
	}
	return synced, nil
}
