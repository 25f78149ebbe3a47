package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/ayusman/poivr/internal/app"
	"github.com/ayusman/poivr/internal/config"
	"github.com/ayusman/poivr/internal/plugin"
	"github.com/ayusman/poivr/internal/server"
	"github.com/ayusman/poivr/internal/store"
	"github.com/ayusman/poivr/internal/synth"
	"github.com/ayusman/poivr/internal/trick"
	"github.com/ayusman/poivr/internal/tray"
)

// enabledSetting is the settings key holding the last enabled state.
const enabledSetting = "recognition.enabled"

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the TOML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "sqlite database path (overrides config)")
	pluginDir := flag.String("plugins", "", "plugin directory (overrides config)")
	demo := flag.Bool("demo", false, "drive the pipeline with the synthetic demo rig")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	writeConfig := flag.Bool("write-config", false, "write the effective config to -config and exit")
	flag.Parse()

	fmt.Println("poivr - Poi Trick Recognition")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *pluginDir != "" {
		cfg.Server.PluginDir = *pluginDir
	}

	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Config written to %s\n", *configPath)
		return
	}

	if dir := filepath.Dir(cfg.Server.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	st, err := store.New(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a := app.New(cfg.Recognition())
	if v, err := st.Settings().Get(enabledSetting); err == nil {
		if enabled, err := strconv.ParseBool(v); err == nil {
			a.SetEnabled(enabled)
		}
	}

	trickLog := store.NewTrickLog(st.Tricks())
	a.Subscribe(trickLog)

	plugins := plugin.NewManager(cfg.Server.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	log.Printf("Loaded %d plugins from %s", len(plugins.List()), plugins.PluginDir())

	dispatcher := plugin.NewDispatcher(plugins, plugin.NewExecutor(cfg.Server.PluginTimeout), plugin.DispatcherConfig{
		Session: trickLog.Session,
	})
	a.Subscribe(dispatcher)

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.New(server.Config{
			StaticDir: webDir,
			Settings:  &cfg,
			App:       a,
			Store:     st,
			TrickLog:  trickLog,
			Plugins:   plugins,
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *demo {
		rig := synth.Demo()
		defer rig.Close()
		a.Start(rig)
	}

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if *withTray {
		t := newTray(a, st, "http://"+cfg.Server.Addr, stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// the tray owns the main thread until it quits
		t.Run()
	}

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	dispatcher.Close(shutdownCtx)
}

// newTray creates the tray menu wired to a. Toggling persists the enabled
// state in the settings table.
func newTray(a *app.App, st *store.Store, url string, quit func()) *tray.Tray {
	t := tray.New(a.IsEnabled())

	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		if err := st.Settings().Set(enabledSetting, strconv.FormatBool(enabled)); err != nil {
			log.Printf("Failed to save setting: %v", err)
		}
	})
	t.OnReset(a.Reset)
	t.OnSettings(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(quit)

	a.Subscribe(trick.Sink(t))
	return t
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.config/poivr/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".config", "poivr", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
