package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	BaseURL     string
	DatabaseDSN string

	// Secret for signing access and reset tokens. Never logged.
	AccessSecret string

	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailFromName string

	// Fallback email-to-SMS gateway domain for carriers we do not know.
	SMSGatewayDomain string

	VerifyURL string
	ResetURL  string

	// Requests per minute allowed on the public auth endpoints, per IP.
	// Zero means the router default.
	RateLimitRPM int

	OwnerEmail     string
	OwnerUsername  string
	OwnerPhone     string
	OwnerPassword  string
	OwnerFirstName string
	OwnerLastName  string

	LogLevel string
	LogDev   bool
	LogFile  string
}

func LoadConfig() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			log.Println("Warning: env file not found or could not be loaded:", err)
		}
	}

	logDev, _ := strconv.ParseBool(os.Getenv("LOG_DEV"))
	rateRPM, _ := strconv.Atoi(os.Getenv("RATE_LIMIT_RPM"))

	return Config{
		ServerPort:  os.Getenv("SERVER_PORT"),
		BaseURL:     os.Getenv("BASE_URL"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		AccessSecret: os.Getenv("ACCESS_SECRET"),

		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    os.Getenv("KAFKA_TOPIC"),
		KafkaUsername: os.Getenv("KAFKA_USERNAME"),
		KafkaPassword: os.Getenv("KAFKA_PASSWORD"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     os.Getenv("SMTP_PORT"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),
		MailFromName: os.Getenv("MAIL_FROM_NAME"),

		SMSGatewayDomain: os.Getenv("SMS_GATEWAY_DOMAIN"),

		VerifyURL: os.Getenv("VERIFY_BASE_URL"),
		ResetURL:  os.Getenv("RESET_BASE_URL"),

		RateLimitRPM: rateRPM,

		OwnerEmail:     os.Getenv("OWNER_EMAIL"),
		OwnerUsername:  os.Getenv("OWNER_USERNAME"),
		OwnerPhone:     os.Getenv("OWNER_PHONE"),
		OwnerPassword:  os.Getenv("OWNER_PASSWORD"),
		OwnerFirstName: os.Getenv("OWNER_FIRST_NAME"),
		OwnerLastName:  os.Getenv("OWNER_LAST_NAME"),

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogDev:   logDev,
		LogFile:  os.Getenv("LOG_FILE"),
	}
}
