// Package internal holds process configuration, loaded from the environment.
package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Config struct {
	ShowdownHost string `env:"SHOWDOWN_HOST,default=sim3.psim.us" validate:"required,hostname"`
	ShowdownPort int    `env:"SHOWDOWN_PORT,default=443" validate:"required,min=1,max=65535"`

	Username   string `env:"USERNAME,required=true" validate:"required"`
	Password   string `env:"PASSWORD"`
	Avatar     string `env:"AVATAR"`
	StatusText string `env:"STATUSTEXT"`

	// Rooms is a comma separated list of rooms to join on startup.
	Rooms            string `env:"ROOMS"`
	MainRoom         string `env:"MAIN_ROOM,required=true" validate:"required"`
	CommandCharacter string `env:"COMMAND_CHARACTER,default=." validate:"required"`
	// Administrators is a comma separated list of privileged usernames.
	Administrators string `env:"ADMINISTRATORS"`
	LoginEndpoint  string `env:"LOGIN_ENDPOINT"`

	LogLevel     string `env:"LOG_LEVEL,default=INFO" validate:"required"`
	LookupDBPath string `env:"LOOKUP_DB_PATH,required=true" validate:"required"`

	AdminAddr          string        `env:"ADMIN_ADDR,default=localhost:8080" validate:"required"`
	AdminUsername      string        `env:"ADMIN_USERNAME,default=admin" validate:"required"`
	AdminPasswordHash  string        `env:"ADMIN_PASSWORD_HASH,required=true" validate:"required"`
	AdminTokenSecret   string        `env:"ADMIN_TOKEN_SECRET,required=true" validate:"required,min=16"`
	AdminTokenDuration time.Duration `env:"ADMIN_TOKEN_DURATION,default=24h"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=15s"`
}

// URL builds the socket endpoint; port 443 implies TLS.
func (c Config) URL() string {
	scheme := "ws"
	if c.ShowdownPort == 443 {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/showdown/websocket", scheme, c.ShowdownHost, c.ShowdownPort)
}

// RoomList splits the configured room names.
func (c Config) RoomList() []string {
	return splitList(c.Rooms)
}

// AdministratorList splits the configured administrator usernames.
func (c Config) AdministratorList() []string {
	return splitList(c.Administrators)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate enforces the constraints go-env's tags cannot express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if len([]rune(c.CommandCharacter)) != 1 {
		return fmt.Errorf("COMMAND_CHARACTER must be a single character, got %q", c.CommandCharacter)
	}
	return nil
}
