package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prefkit/prefkit"
	"github.com/prefkit/prefkit/notify"
	"github.com/prefkit/prefkit/storage"
	"github.com/prefkit/prefkit/types"
)

// ================= SAMPLE KEY UNIVERSE =================
//
// An example of preferences that are never shown to the user but cached in
// memory. The key set is static: these values ARE the universe, and the
// mapping below is derived from them.

type prefKey struct {
	name string
	def  any
}

func (k prefKey) StorageName() string { return k.name }
func (k prefKey) DefaultValue() any   { return k.def }

// Theme is an enum preference persisted as an integer.
type Theme int

const (
	ThemeSystem Theme = iota
	ThemeLight
	ThemeDark
)

func (t Theme) StorageValue() int { return int(t) }

func (t Theme) VariantOf(stored int) (types.IntEnum, bool) {
	switch v := Theme(stored); v {
	case ThemeSystem, ThemeLight, ThemeDark:
		return v, true
	}
	return nil, false
}

func (t Theme) String() string {
	return [...]string{"system", "light", "dark"}[t]
}

var (
	ShowWarningAgain = prefKey{"ShowNotificationWarningAgain", true}
	WarningCounter   = prefKey{"NotificationWarningCounter", 0}
	LastShown        = prefKey{"LastTimeNotificationShown", int64(0)}
	LastText         = prefKey{"LastNotificationText", nil}
	AppTheme         = prefKey{"AppTheme", ThemeSystem}
)

var allKeys = types.MapOf(ShowWarningAgain, WarningCounter, LastShown, LastText, AppTheme)

// ================= CHANGE LISTENER =================

type printListener struct{}

func (printListener) PreferenceChanged(key types.Key) {
	fmt.Println("LISTENER → changed:", key.StorageName())
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "prefkit-demo-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "hidden_prefs.yaml")

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("STORE           : YAML file,", path)
	fmt.Println("WRITE MODE      : WRITE-BACK")
	fmt.Println("LISTENERS       : weak references")

	store, err := storage.NewFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close()

	prefs, err := prefkit.Open("hidden_prefs", func() (*prefkit.Preferences, error) {
		return prefkit.New(ctx, store, allKeys)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// ====================================================
	fmt.Println("\n==================== 1) DEFAULTS ====================")
	fmt.Println("PREFS  → counter =", prefs.GetInt(WarningCounter))
	fmt.Println("PREFS  → theme   =", prefs.GetIntEnum(AppTheme))

	// ====================================================
	fmt.Println("\n==================== 2) LISTENER ====================")
	listener := &printListener{}
	prefs.RegisterChangeListener(notify.WeakRef(listener), ShowWarningAgain)

	// ====================================================
	fmt.Println("\n==================== 3) MUTATIONS ====================")
	counter := prefs.GetInt(WarningCounter)
	prefs.PutInt(WarningCounter, counter+1)
	prefs.PutInt(WarningCounter, counter+1) // idempotent: no job, no event
	prefs.PutString(LastText, "update available")
	prefs.PutInt64(LastShown, time.Now().Unix())
	prefs.PutIntEnum(AppTheme, ThemeDark)
	fmt.Println("PREFS  → counter =", prefs.GetInt(WarningCounter))
	fmt.Println("PREFS  → theme   =", prefs.GetIntEnum(AppTheme))

	// ====================================================
	fmt.Println("\n==================== 4) REMOVE ====================")
	prefs.Remove(LastText)
	fmt.Printf("PREFS  → text = %q (contains: %v)\n",
		prefs.GetString(LastText), prefs.Contains(LastText))

	// ====================================================
	fmt.Println("\n==================== 5) DURABILITY ====================")
	prefkit.CloseAll() // drains the write-back queue

	second, err := prefkit.New(ctx, store, allKeys)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("PREFS2 → counter =", second.GetInt(WarningCounter))
	fmt.Println("PREFS2 → theme   =", second.GetIntEnum(AppTheme))
	second.Close()

	runtime.KeepAlive(listener)
	fmt.Println("\nSYSTEM → shut down cleanly")
}
