package config

import (
	"os"
	"time"

	"github.com/jinzhu/configor"
)

type Config struct {
	AppConfig AppConfig `env:"APPCONFIG"`
	DBConfig  DBConfig  `env:"DBCONFIG"`
	JobConfig JobConfig `env:"JOBCONFIG"`
	IRCConfig IRCConfig `env:"IRCCONFIG"`
}

type AppConfig struct {
	APPName   string `default:"bloom"`
	Version   string `default:"x.x.x" env:"VERSION"`
	Env       string `default:"development" env:"APP_ENV"`
	Port      int    `default:"8080" env:"APP_PORT"`
	JWTSecret string `env:"JWT_SECRET"`
}

type DBConfig struct {
	Host         string `default:"localhost" env:"DBHOST"`
	DataBase     string `default:"bloom" env:"DBNAME"`
	User         string `default:"postgres" env:"DBUSERNAME"`
	Password     string `required:"true" env:"DBPASSWORD" default:"mysecretpassword"`
	Port         uint   `default:"5432" env:"DBPORT"`
	SSLMode      string `default:"disable" env:"DBSSL"`
	MaxOpenConns int    `default:"20" env:"DBMAXOPENCONNS"`
	AutoMigrate  bool   `default:"false" env:"DBAUTOMIGRATE"`

	TxTimeout     time.Duration `default:"5s" env:"DBTXTIMEOUT"`
	TxMaxAttempts uint          `default:"3" env:"DBTXMAXATTEMPTS"`
}

type JobConfig struct {
	Enabled bool `default:"true" env:"JOB_ENABLED"`
	// UTC hour the daily batch run fires at.
	RunHourUTC int `default:"0" env:"JOB_RUN_HOUR"`
	// Weekday (0=Sunday) on which weekly insights are written.
	WeeklyWeekday      int `default:"1" env:"JOB_WEEKLY_WEEKDAY"`
	PageSize           int `default:"200" env:"JOB_PAGE_SIZE"`
	NotificationDayCap int `default:"3" env:"NOTIFICATION_DAILY_CAP"`

	LogRetentionDays          int `default:"180" env:"LOG_RETENTION_DAYS"`
	NotificationRetentionDays int `default:"30" env:"NOTIFICATION_RETENTION_DAYS"`
}

// IRCConfig configures the optional ops channel that receives batch summaries.
type IRCConfig struct {
	Host             string `env:"IRC_HOST"`
	Port             int    `default:"6697" env:"IRC_PORT"`
	SSL              bool   `default:"true" env:"IRC_SSL"`
	Nick             string `default:"bloombot" env:"IRC_NICK"`
	Channel          string `env:"IRC_CHANNEL"`
	NickservCommand  string `env:"NICKSERV_COMMAND" default:"PRIVMSG NickServ IDENTIFY %s"`
	NickservPassword string `env:"NICKSERV_PASSWORD" default:""`
}

func (c IRCConfig) Enabled() bool {
	return c.Host != "" && c.Channel != ""
}

// Load reads the optional json file at path and overlays environment variables.
func Load(path string) (Config, error) {
	var config = Config{}
	var files []string
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	if err := configor.Load(&config, files...); err != nil {
		return Config{}, err
	}
	return config, nil
}
