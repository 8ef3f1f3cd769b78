package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// ALERT_WEBHOOK_URL posts job and worker alerts to the team channel.
// Notifications are skipped when it is not set.
const envAlertWebhookURL = "ALERT_WEBHOOK_URL"

// NotifyThroughWebhook - Send alert notification to the team.
func NotifyThroughWebhook(source, env string, message interface{}) error {
	if env != "staging" && env != "production" && env != "development" {
		return fmt.Errorf("notification skipped for env %s", env)
	}

	body := map[string]interface{}{
		"source":  source,
		"env":     env,
		"message": message,
	}
	jsonBody, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	if env == "development" {
		fmt.Println("-- Notification Template --")
		fmt.Println(string(jsonBody))
		return nil
	}

	webhookURL := os.Getenv(envAlertWebhookURL)
	if webhookURL == "" {
		return fmt.Errorf("notification skipped, %s not set", envAlertWebhookURL)
	}

	req, err := http.NewRequest("POST", webhookURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	} else if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alert webhook returned non 200 status: %d", resp.StatusCode)
	}
	defer resp.Body.Close()

	return nil
}

// NotifyOnPanic - To be deferred on job and worker mains. Logs the
// panic with stack and notifies the team, then re-panics.
func NotifyOnPanic(source, env string) {
	if r := recover(); r != nil {
		stack := string(debug.Stack())
		log.WithFields(log.Fields{"source": source, "panic": r,
			"stack": stack}).Error("Panic on job.")

		err := NotifyThroughWebhook(source, env,
			map[string]interface{}{"panic": fmt.Sprintf("%v", r), "stack": stack})
		if err != nil {
			log.WithError(err).Error("Failed to notify panic.")
		}

		panic(r)
	}
}
