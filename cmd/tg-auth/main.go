package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"

	"github.com/blockedby/resolver-os/internal/config"
	"github.com/blockedby/resolver-os/internal/telegram"
)

// tg-auth provisions one authorized session file per pool slot. Run it once
// per session name before starting the service; the service itself never
// does interactive login.
func main() {
	fmt.Println("=== telegram auth tool ===")
	fmt.Println("this tool authorizes a session file for the resolver client pool")
	fmt.Println()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("failed to load config:", err)
		os.Exit(1)
	}
	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		fmt.Println("TG_API_ID and TG_API_HASH must be set (get them from my.telegram.org)")
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("session name [session_0]: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		name = "session_0"
	}

	fmt.Print("phone number (international format): ")
	phone, _ := reader.ReadString('\n')
	phone = strings.TrimSpace(phone)
	if phone == "" {
		fmt.Println("a phone number is required")
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.SessionDir, 0700); err != nil {
		fmt.Println("failed to create session dir:", err)
		os.Exit(1)
	}
	path := telegram.SessionPath(cfg.SessionDir, name)

	// gotgproto prompts for the login code (and 2FA password) on stdin
	client, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypePhone(phone),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open(path)),
			DisableCopyright: true,
			InMemory:         false,
		},
	)
	if err != nil {
		fmt.Println("authorization failed:", err)
		os.Exit(1)
	}

	self := client.Self
	fmt.Printf("\nauthorized as %s %s (id %d)\n", self.FirstName, self.LastName, self.ID)
	fmt.Printf("session stored at %s\n", path)
	fmt.Printf("add %q to TG_SESSION_NAMES to use it in the pool\n", name)

	client.Stop()
}
