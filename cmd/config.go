package main

import "time"

type Config struct {
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath             string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	LimitMessages             int           `env:"LIMIT_MESSAGES,default=100"`
	TickPeriod                time.Duration `env:"TICK_PERIOD,default=15s"`
	IdleThreshold             time.Duration `env:"IDLE_THRESHOLD,default=10s"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=5000"`
}
