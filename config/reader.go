package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type ConfigSchema struct {
	Databases struct {
		Master   DBConfig   `yaml:"master"`
		Replicas []DBConfig `yaml:"replicas"`
	} `yaml:"db"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Storage struct {
		UploadDir     string `yaml:"upload_dir"`
		MaxUploadSize int64  `yaml:"max_upload_size"` // байты
	} `yaml:"storage"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

var AppConfig *ConfigSchema

func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var conf ConfigSchema
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return err
	}
	AppConfig = &conf
	return nil
}
