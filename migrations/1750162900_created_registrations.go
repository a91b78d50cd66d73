package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "tv_regs_000001",
			"name": "registrations",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "rel_rg_event",
					"name": "event",
					"type": "relation",
					"required": true,
					"collectionId": "tv_events_00001",
					"cascadeDelete": false,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "rel_rg_user",
					"name": "user",
					"type": "relation",
					"required": true,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "sel_rg_status",
					"name": "status",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["pending", "approved", "rejected", "waitlisted"]
				},
				{
					"id": "sel_rg_paystat",
					"name": "payment_status",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["unpaid", "paid", "refunded"]
				},
				{
					"id": "text_rg_notes",
					"name": "notes",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "autodate_rg_c",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"id": "autodate_rg_u",
					"name": "updated",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": true
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_registrations_event_user ON registrations (event, user)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tv_regs_000001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
