// Package agro is a client for the Agromonitoring API (OpenWeather).
// Docs: https://agromonitoring.com/api
package agro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/config"
)

// Client is an HTTP client for the Agromonitoring API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a new Agromonitoring client
func New(cfg config.AgroConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With().Str("component", "agro").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Geometry is the GeoJSON geometry of a field polygon
type Geometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// GeoJSON wraps a polygon geometry as a GeoJSON feature
type GeoJSON struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Polygon represents a registered field polygon
type Polygon struct {
	ID      string     `json:"id"`
	GeoJSON GeoJSON    `json:"geo_json"`
	Name    string     `json:"name"`
	Center  [2]float64 `json:"center"`
	Area    float64    `json:"area"`
}

// NDVIStats is one historical NDVI sample for a polygon
type NDVIStats struct {
	DT   int64  `json:"dt"`
	Type string `json:"type"`
	DC   int    `json:"dc"`
	CL   int    `json:"cl"`
	Data struct {
		Std  float64 `json:"std"`
		P25  float64 `json:"p25"`
		Num  int     `json:"num"`
		P75  float64 `json:"p75"`
		Max  float64 `json:"max"`
		Mean float64 `json:"mean"`
		P50  float64 `json:"p50"`
		Min  float64 `json:"min"`
	} `json:"data"`
}

// SatelliteImage is one entry from the image search endpoint
type SatelliteImage struct {
	DT    int64 `json:"dt"`
	Type  string `json:"type"`
	DC    int   `json:"dc"`
	CL    int   `json:"cl"`
	Image struct {
		TrueColor  string `json:"truecolor"`
		FalseColor string `json:"falsecolor"`
		NDVI       string `json:"ndvi"`
		EVI        string `json:"evi"`
	} `json:"image"`
	Tile struct {
		TrueColor  string `json:"truecolor"`
		FalseColor string `json:"falsecolor"`
		NDVI       string `json:"ndvi"`
	} `json:"tile"`
}

// Weather is the current-conditions response for a coordinate
type Weather struct {
	DT      int64 `json:"dt"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"` // Kelvin
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
}

// TempCelsius converts the Kelvin reading to Celsius
func (w *Weather) TempCelsius() float64 {
	return w.Main.Temp - 273.15
}

// existingPolygonID matches the polygon id Agromonitoring embeds in its
// duplicate-polygon error text.
var existingPolygonID = regexp.MustCompile(`'([a-f0-9]{24})'`)

// CreatePolygon registers a field polygon. Coordinates are [lng, lat] pairs;
// the ring is closed automatically and rounded to 6 decimal places, which
// the API requires to avoid floating-point 422 rejections. A duplicate
// polygon is recovered by extracting the already-registered id from the
// error response.
func (c *Client) CreatePolygon(ctx context.Context, name string, coordinates [][2]float64) (*Polygon, error) {
	if len(coordinates) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 coordinates")
	}

	closed := make([][2]float64, 0, len(coordinates)+1)
	for _, coord := range coordinates {
		closed = append(closed, [2]float64{round6(coord[0]), round6(coord[1])})
	}
	if closed[0] != closed[len(closed)-1] {
		closed = append(closed, closed[0])
	}

	geoJSON := GeoJSON{
		Type:       "Feature",
		Properties: map[string]any{},
		Geometry: Geometry{
			Type:        "Polygon",
			Coordinates: [][][2]float64{closed},
		},
	}

	body := map[string]any{
		"name":     name,
		"geo_json": geoJSON,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/polygons", nil), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)

		if resp.StatusCode == http.StatusUnprocessableEntity && bytes.Contains(raw, []byte("already existed polygon")) {
			if match := existingPolygonID.FindSubmatch(raw); match != nil {
				id := string(match[1])
				c.logger.Info().Str("polygon_id", id).Str("name", name).Msg("Recovered existing polygon")
				return &Polygon{ID: id, Name: name, GeoJSON: geoJSON}, nil
			}
		}

		return nil, fmt.Errorf("failed to create polygon (status %d): %s", resp.StatusCode, string(raw))
	}

	var polygon Polygon
	if err := json.NewDecoder(resp.Body).Decode(&polygon); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &polygon, nil
}

// SearchImages lists available satellite imagery for a polygon in the range
func (c *Client) SearchImages(ctx context.Context, polygonID string, start, end time.Time) ([]SatelliteImage, error) {
	query := url.Values{
		"polyid": {polygonID},
		"start":  {fmt.Sprintf("%d", start.Unix())},
		"end":    {fmt.Sprintf("%d", end.Unix())},
	}

	var images []SatelliteImage
	if err := c.get(ctx, "/image/search", query, &images); err != nil {
		return nil, fmt.Errorf("failed to search images: %w", err)
	}
	return images, nil
}

// NDVIHistory returns historical NDVI statistics for a polygon
func (c *Client) NDVIHistory(ctx context.Context, polygonID string, start, end time.Time) ([]NDVIStats, error) {
	query := url.Values{
		"polyid": {polygonID},
		"start":  {fmt.Sprintf("%d", start.Unix())},
		"end":    {fmt.Sprintf("%d", end.Unix())},
	}

	var stats []NDVIStats
	if err := c.get(ctx, "/ndvi/history", query, &stats); err != nil {
		return nil, fmt.Errorf("failed to fetch NDVI history: %w", err)
	}
	return stats, nil
}

// CurrentWeather returns current conditions for a coordinate
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*Weather, error) {
	query := url.Values{
		"lat": {fmt.Sprintf("%f", lat)},
		"lon": {fmt.Sprintf("%f", lon)},
	}

	var weather Weather
	if err := c.get(ctx, "/weather", query, &weather); err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	return &weather, nil
}

// TileURL appends the requested layer to an image tile URL template
func TileURL(imageURL, layer string) string {
	return fmt.Sprintf("%s&layer=%s", imageURL, layer)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// endpoint builds a full URL with the API key appended
func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("appid", c.apiKey)
	return c.baseURL + path + "?" + query.Encode()
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
