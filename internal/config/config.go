package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}
}

// Config is the full environment surface of the bot. Role tables and channel ids
// mirror the game-server side configuration; rank tags are lowercase.
type Config struct {
	DiscordToken string `env:"DISCORD_BOT_TOKEN,required"`
	GuildID      string `env:"GUILD_ID,required"`
	Prefix       string `env:"COMMAND_PREFIX" envDefault:"!"`
	EmbedColour  int    `env:"EMBED_COLOUR" envDefault:"7506394"`

	RedisHost string `env:"REDIS_HOST" envDefault:"127.0.0.1"`
	RedisPort string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASS"`

	DBHost string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort string `env:"DB_PORT" envDefault:"3306"`
	DBUser string `env:"DB_USER"`
	DBPass string `env:"DB_PASSWORD"`
	DBName string `env:"DB_NAME"`

	LogChannelID        string `env:"LOG_CHANNEL_ID"`
	ChatBridgeChannelID string `env:"CHAT_BRIDGE_CHANNEL_ID"`
	CountingChannelID   string `env:"COUNTING_CHANNEL_ID"`
	StatusCategoryID    string `env:"STATUS_CATEGORY_ID"`
	SupportChannelID    string `env:"SUPPORT_CHANNEL_ID"`
	WelcomeChannelID    string `env:"WELCOME_CHANNEL_ID"`
	PollChannelID       string `env:"POLL_CHANNEL_ID"`

	ChatWebhookID    string `env:"CHAT_WEBHOOK_ID"`
	ChatWebhookToken string `env:"CHAT_WEBHOOK_TOKEN"`

	LogGeneral bool `env:"LOG_GENERAL" envDefault:"true"`
	LogDM      bool `env:"LOG_DM" envDefault:"true"`

	// InGameRanks maps a rank tag ("default", "vip", "mod", ...) to the Discord
	// role id representing that rank. Membership is mutually exclusive.
	InGameRanks map[string]string `env:"IN_GAME_RANKS" envSeparator:"," envKeyValSeparator:":"`
	StaffRanks  []string          `env:"STAFF_RANKS" envSeparator:","`
	AdminRoles  []string          `env:"ADMIN_ROLES" envSeparator:","`
	MutedRoleID string            `env:"MUTED_ROLE_ID"`
	StaffRoleID string            `env:"STAFF_ROLE_ID"`

	// RankColors maps a lowercase Discord role name to the in-game colour code
	// used in the chat relay prefix.
	RankColors map[string]string `env:"RANK_COLORS" envSeparator:"," envKeyValSeparator:":"`

	Cooldown time.Duration `env:"COMMAND_COOLDOWN" envDefault:"3s"`

	PresenceInterval     time.Duration `env:"PRESENCE_INTERVAL" envDefault:"15s"`
	StatusUpdateInterval time.Duration `env:"STATUS_UPDATE_INTERVAL" envDefault:"60s"`
	PunishUpdateInterval time.Duration `env:"PUNISH_UPDATE_INTERVAL" envDefault:"60s"`
	CodeExpireInterval   time.Duration `env:"CODE_EXPIRE_INTERVAL" envDefault:"60s"`

	Activities []string `env:"ACTIVITIES" envSeparator:";" envDefault:"Minecraft"`

	// Counting-game prize draws. Two independent chances; the cash draw is
	// checked first and at most one prize is awarded per accepted number.
	CountingCashChance  float64 `env:"COUNTING_CASH_CHANCE" envDefault:"0.05"`
	CountingCashAmount  int     `env:"COUNTING_CASH_AMOUNT" envDefault:"25"`
	CountingCrateChance float64 `env:"COUNTING_CRATE_CHANCE" envDefault:"0"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// RedisAddr returns the host:port address of the Redis bridge.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// PlayerDSN returns the MySQL DSN of the game-server player database.
func (c *Config) PlayerDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}
