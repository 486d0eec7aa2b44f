package appium

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
)

// writeJSON encodes data as JSON to the response writer.
func writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return body
}

func TestClient_Connect(t *testing.T) {
	var gotCaps map[string]interface{}
	settingsCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session" && r.Method == "POST" {
			body := decodeBody(t, r)
			caps, _ := body["capabilities"].(map[string]interface{})
			gotCaps, _ = caps["alwaysMatch"].(map[string]interface{})
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"sessionId": "test-session-123",
					"capabilities": map[string]interface{}{
						"platformName":    "Android",
						"platformVersion": "13",
					},
				},
			})
			return
		}
		if r.URL.Path == "/session/test-session-123/appium/settings" {
			settingsCalled = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	err := client.Connect(context.Background(), map[string]interface{}{
		"platformName":          "Android",
		"appium:appPackage":     "com.visualdx.aysa",
		"appium:settings":       map[string]interface{}{"waitForIdleTimeout": 100},
		"appium:noReset":        false,
		"appium:deviceName":     "emulator-5554",
		"appium:automationName": "UiAutomator2",
	})

	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if client.SessionID() != "test-session-123" {
		t.Errorf("Expected sessionID 'test-session-123', got '%s'", client.SessionID())
	}

	if client.platform != "android" {
		t.Errorf("Expected platform 'android', got '%s'", client.platform)
	}

	if gotCaps["appium:appPackage"] != "com.visualdx.aysa" {
		t.Errorf("alwaysMatch appPackage = %v, want com.visualdx.aysa", gotCaps["appium:appPackage"])
	}

	if !settingsCalled {
		t.Error("settings endpoint was not called")
	}
}

func TestClient_ConnectError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "session not created",
				"message": "Could not find a connected Android device",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Connect(context.Background(), map[string]interface{}{"platformName": "Android"})
	if err == nil {
		t.Fatal("expected error")
	}
	if client.SessionID() != "" {
		t.Errorf("sessionID = %q, want empty", client.SessionID())
	}
}

func TestClient_ConnectCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"value": map[string]interface{}{"sessionId": "s"}})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewClient(server.URL).Connect(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Connect() error = %v, want context.Canceled", err)
	}
}

func TestClient_Disconnect(t *testing.T) {
	deleteCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session" && r.Method == "DELETE" {
			deleteCalled = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	err := client.Disconnect()
	if err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if !deleteCalled {
		t.Error("DELETE /session was not called")
	}

	if client.sessionID != "" {
		t.Error("sessionID should be cleared after disconnect")
	}

	// Second disconnect is a no-op
	if err := client.Disconnect(); err != nil {
		t.Errorf("second Disconnect() error = %v", err)
	}
}

func TestClient_FindElement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/element" && r.Method == "POST" {
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"element-6066-11e4-a52e-4f735466cecf": "elem-123",
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	elemID, err := client.FindElement("accessibility id", "Upload Image")
	if err != nil {
		t.Fatalf("FindElement failed: %v", err)
	}

	if elemID != "elem-123" {
		t.Errorf("Expected element ID 'elem-123', got '%s'", elemID)
	}
}

func TestClient_FindElementNoSuchElement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "no such element",
				"message": "An element could not be located on the page using the given search parameters.",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	_, err := client.FindElement("id", "com.visualdx.aysa:id/home_title")
	if !errors.Is(err, core.ErrNoSuchElement) {
		t.Errorf("FindElement() error = %v, want ErrNoSuchElement", err)
	}
}

func TestClient_FindElements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/elements" && r.Method == "POST" {
			writeJSON(w, map[string]interface{}{
				"value": []interface{}{
					map[string]interface{}{"element-6066-11e4-a52e-4f735466cecf": "elem-1"},
					map[string]interface{}{"ELEMENT": "elem-2"},
					map[string]interface{}{"other": "ignored"},
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	ids, err := client.FindElements("id", "com.visualdx.aysa:id/disease_item_name")
	if err != nil {
		t.Fatalf("FindElements failed: %v", err)
	}

	if len(ids) != 2 {
		t.Errorf("Expected 2 elements, got %d", len(ids))
	}
}

func TestClient_Screenshot(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/screenshot" {
			writeJSON(w, map[string]interface{}{"value": base64.StdEncoding.EncodeToString(png)})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	data, err := client.Screenshot()
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if len(data) != 4 || data[1] != 0x50 {
		t.Errorf("Screenshot data = %v, want PNG header", data)
	}
}

func TestClient_Source(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/source" {
			writeJSON(w, map[string]interface{}{"value": "<hierarchy/>"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	source, err := client.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	if source != "<hierarchy/>" {
		t.Errorf("Source = %q, want <hierarchy/>", source)
	}
}

func TestClient_LaunchApp(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/appium/device/activate_app" {
			body = decodeBody(t, r)
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"
	client.platform = "android"

	if err := client.LaunchApp("com.visualdx.aysa"); err != nil {
		t.Fatalf("LaunchApp failed: %v", err)
	}
	if body["appId"] != "com.visualdx.aysa" {
		t.Errorf("appId = %v, want com.visualdx.aysa", body["appId"])
	}
}

func TestClient_TerminateApp(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/appium/device/terminate_app" {
			body = decodeBody(t, r)
			writeJSON(w, map[string]interface{}{"value": true})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"
	client.platform = "ios"

	if err := client.TerminateApp("com.visualdx.aysa"); err != nil {
		t.Fatalf("TerminateApp failed: %v", err)
	}
	if body["bundleId"] != "com.visualdx.aysa" {
		t.Errorf("bundleId = %v, want com.visualdx.aysa", body["bundleId"])
	}
}

func TestClient_Back(t *testing.T) {
	var keycode float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/appium/device/press_keycode" {
			keycode, _ = decodeBody(t, r)["keycode"].(float64)
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	if err := client.Back(); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if keycode != 4 {
		t.Errorf("keycode = %v, want 4", keycode)
	}
}

func TestClient_GetElementText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/element/elem-1/text" {
			writeJSON(w, map[string]interface{}{"value": "Melanoma"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	text, err := client.GetElementText("elem-1")
	if err != nil {
		t.Fatalf("GetElementText failed: %v", err)
	}
	if text != "Melanoma" {
		t.Errorf("text = %q, want Melanoma", text)
	}
}

func TestClient_ElementState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/test-session/element/elem-1/displayed":
			writeJSON(w, map[string]interface{}{"value": true})
		case "/session/test-session/element/elem-1/enabled":
			writeJSON(w, map[string]interface{}{"value": false})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	displayed, err := client.IsElementDisplayed("elem-1")
	if err != nil || !displayed {
		t.Errorf("IsElementDisplayed = %v, %v; want true, nil", displayed, err)
	}
	enabled, err := client.IsElementEnabled("elem-1")
	if err != nil || enabled {
		t.Errorf("IsElementEnabled = %v, %v; want false, nil", enabled, err)
	}
}

func TestClient_ClickElement(t *testing.T) {
	clicked := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/element/elem-1/click" && r.Method == "POST" {
			clicked = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	if err := client.ClickElement("elem-1"); err != nil {
		t.Fatalf("ClickElement failed: %v", err)
	}
	if !clicked {
		t.Error("click endpoint was not called")
	}
}

func TestClient_SetImplicitWait(t *testing.T) {
	var implicit float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/timeouts" {
			implicit, _ = decodeBody(t, r)["implicit"].(float64)
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	if err := client.SetImplicitWait(10 * time.Second); err != nil {
		t.Fatalf("SetImplicitWait failed: %v", err)
	}
	if implicit != 10000 {
		t.Errorf("implicit = %v, want 10000", implicit)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	if _, err := client.Source(); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestExtractElementID(t *testing.T) {
	tests := []struct {
		name  string
		value map[string]interface{}
		want  string
	}{
		{"w3c", map[string]interface{}{w3cElementKey: "a"}, "a"},
		{"legacy", map[string]interface{}{"ELEMENT": "b"}, "b"},
		{"missing", map[string]interface{}{}, ""},
	}
	for _, tt := range tests {
		if got := extractElementID(tt.value); got != tt.want {
			t.Errorf("%s: extractElementID() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
