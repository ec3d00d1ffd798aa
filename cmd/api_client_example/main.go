package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
)

var client = &http.Client{Timeout: 20 * time.Second}

func call(method, rawURL string, body any, headers map[string]string) (int, map[string]interface{}, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, rawURL, reader)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data := map[string]interface{}{}
	respBody, _ := io.ReadAll(resp.Body)
	if len(respBody) > 0 {
		json.Unmarshal(respBody, &data)
	}
	return resp.StatusCode, data, nil
}

func printJSON(title string, status int, data map[string]interface{}) {
	prettyJSON, _ := json.MarshalIndent(data, "", "  ")
	fmt.Printf("\n%s (HTTP %d):\n%s\n", title, status, string(prettyJSON))
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "Dashboard API base URL")
	city := flag.String("city", "Paris", "City to look up")
	flag.Parse()

	fmt.Println("Weather Dashboard API Client Example")
	fmt.Println("====================================")

	status, health, err := call(http.MethodGet, *baseURL+"/health", nil, nil)
	if err != nil {
		fmt.Printf("Error reaching dashboard: %v\n", err)
		os.Exit(1)
	}
	printJSON("Health", status, health)

	// Autocomplete suggestions are debounced per session
	session := map[string]string{"X-Session-ID": uuid.NewString()}
	placesURL := fmt.Sprintf("%s/places?q=%s&limit=3", *baseURL, url.QueryEscape(*city))
	status, places, err := call(http.MethodGet, placesURL, nil, session)
	if err != nil {
		fmt.Printf("Error fetching places: %v\n", err)
		os.Exit(1)
	}
	printJSON("Places matching "+*city, status, places)

	fmt.Printf("\nLooking up weather for %s...\n", *city)
	weatherURL := fmt.Sprintf("%s/weather?city=%s", *baseURL, url.QueryEscape(*city))
	status, snap, err := call(http.MethodGet, weatherURL, nil, nil)
	if err != nil {
		fmt.Printf("Error fetching weather: %v\n", err)
		os.Exit(1)
	}
	if snap["state"] == "error" {
		fmt.Printf("Lookup failed: %v\n", snap["message"])
		os.Exit(1)
	}
	printJSON("Display", status, map[string]interface{}{
		"city":    snap["city"],
		"display": snap["display"],
		"theme":   snap["theme"],
	})

	// Switching unit re-renders without another upstream fetch
	status, snap, err = call(http.MethodPut, *baseURL+"/preferences/unit", map[string]string{"unit": "fahrenheit"}, nil)
	if err != nil {
		fmt.Printf("Error setting unit: %v\n", err)
		os.Exit(1)
	}
	printJSON("Forecast in fahrenheit", status, map[string]interface{}{
		"unit":     snap["unit"],
		"forecast": snap["forecast"],
	})

	status, recent, err := call(http.MethodGet, *baseURL+"/recent", nil, nil)
	if err != nil {
		fmt.Printf("Error fetching recent searches: %v\n", err)
		os.Exit(1)
	}
	printJSON("Recent searches", status, recent)
}
