package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	// Host is the public base URL, used to build links sent by email.
	Host      string    `koanf:"host"`
	Server    Server    `koanf:"server"`
	Database  Database  `koanf:"db"`
	Auth      Auth      `koanf:"auth"`
	Email     Email     `koanf:"email"`
	Evolution Evolution `koanf:"evolution"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Auth struct {
	JwtSecret string `koanf:"jwtsecret"`
	// SessionTtlHours is the lifetime of an issued session token.
	SessionTtlHours int `koanf:"sessionttlhours"`
}

type Email struct {
	SmtpHost string `koanf:"smtphost"`
	SmtpPort int    `koanf:"smtpport"`
	SmtpUser string `koanf:"smtpuser"`
	SmtpPass string `koanf:"smtppass"`
	From     string `koanf:"from"`
	FromName string `koanf:"fromname"`
}

// Evolution holds the Evolution API (WhatsApp gateway) connection settings.
type Evolution struct {
	Url      string `koanf:"url"`
	ApiKey   string `koanf:"apikey"`
	Instance string `koanf:"instance"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host: "http://localhost:3000",
		Server: Server{
			Addr: ":8181",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "budgetwatch",
			Pass:   "",
			Name:   "budgetwatch",
			Schema: "budgetwatch",
		},
		Auth: Auth{
			SessionTtlHours: 30 * 24,
		},
		Email: Email{
			SmtpPort: 587,
			From:     "noreply@example.com",
			FromName: "Budgetwatch",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "BUDGETWATCH_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "BUDGETWATCH_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

// IsConfigured reports whether enough SMTP settings are present to send mail.
func (e Email) IsConfigured() bool {
	return e.SmtpHost != "" && e.From != ""
}

func (e Evolution) IsConfigured() bool {
	return strings.TrimSpace(e.Url) != "" && strings.TrimSpace(e.ApiKey) != "" && strings.TrimSpace(e.Instance) != ""
}
