package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/ayusman/memetracker/internal/app"
	"github.com/ayusman/memetracker/internal/expression"
	"github.com/ayusman/memetracker/internal/server"
	"github.com/ayusman/memetracker/internal/store"
	"github.com/ayusman/memetracker/internal/tray"
)

const serverAddr = ":8080"

func main() {
	fmt.Println("MemeTracker - Expression-Driven Reaction Display")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".memetracker")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "memetracker.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	uploadsDir := filepath.Join(dataDir, "uploads")
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		log.Fatalf("Failed to create uploads directory: %v", err)
	}

	// Desktop detection pipeline
	a := app.New(app.Config{
		Store:    st,
		CameraID: cameraID(st),
	})
	defer a.Stop()

	if err := a.LoadBindings(); err != nil {
		log.Printf("Failed to load image bindings: %v", err)
	}

	// The desktop session participates in the same registry as browser
	// clients so uploads and preset loads reach it too.
	registry := expression.NewRegistry()
	registry.Adopt("desktop", a.Session())

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure and start server
	srv := server.New(server.Config{
		StaticDir:  webDir,
		UploadsDir: uploadsDir,
		Store:      st,
		Camera:     a.Camera(),
		Builder:    a.Builder(),
		Registry:   registry,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", serverAddr)
		if err := srv.ListenAndServe(serverAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if err := a.Start(); err != nil {
		log.Printf("Detection pipeline unavailable: %v", err)
	} else {
		a.SetEnabled(true)
	}

	// systray.Run must own the main goroutine
	t := tray.New()
	a.OnChange(func(label expression.Label, ref string) {
		t.SetExpression(string(label))
	})
	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
	})
	t.OnAutoToggle(func(auto bool) {
		a.Session().SetAutoTrigger(auto)
		if err := st.Settings().SetBool(store.SettingAutoTrigger, auto); err != nil {
			log.Printf("Failed to persist auto-trigger setting: %v", err)
		}
	})
	t.OnSettings(func() {
		openBrowser("http://localhost" + serverAddr)
	})
	t.OnQuit(func() {
		a.Stop()
	})
	t.Run()
}

// cameraID reads the configured camera device from settings, defaulting
// to device 0.
func cameraID(st *store.Store) int {
	v, err := st.Settings().Get(store.SettingCameraID)
	if err != nil {
		return 0
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return id
}

// openBrowser opens the dashboard URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.memetracker/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".memetracker", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
