/*
Copyright 2025 Artcurate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/artcurate/curate/config"
	"github.com/artcurate/curate/internal/request"
)

// SlackNotification posts an error report to the configured Slack webhook.
// Used for faults a moderator cannot see from the chat side, e.g. malformed
// queue keys or repeated content fetch failures.
func SlackNotification(err error) {
	data := json.RawMessage(fmt.Sprintf(`{
		"blocks": [
			{
				"type": "header",
				"text": {
					"type": "plain_text",
					"text": "Error From Curate 🐞",
					"emoji": true
				}
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Error:*\n%v"
					}
				]
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Time:*\n%v"
					}
				]
			}
		]
	}`, err.Error(), time.Now().Format(time.RFC822)))

	conf, cfgErr := config.Fetch()
	if cfgErr != nil {
		log.Println(cfgErr)
		return
	}

	payload, reqErr := request.ToJsonReq(&data)
	if reqErr != nil {
		log.Println(reqErr)
		return
	}

	req, reqErr := http.NewRequest("POST", conf.Notification.Slack.WebhookUrl, payload)
	if reqErr != nil {
		log.Println(reqErr)
		return
	}

	var response map[string]interface{}
	if _, callErr := request.Call(req, &response); callErr != nil {
		log.Println(callErr)
	}
}

// NotifyError logs the error and, when Slack is configured, reports it to
// the webhook. Runs asynchronously so queue operations never block on it.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification(systemError)
		}
	}(systemError)
}
