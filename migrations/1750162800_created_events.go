package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "tv_events_00001",
			"name": "events",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_ev_title",
					"name": "title",
					"type": "text",
					"required": true,
					"presentable": true,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "text_ev_descr",
					"name": "description",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "text_ev_locat",
					"name": "location",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "date_ev_start",
					"name": "start_date",
					"type": "date",
					"required": false,
					"min": "",
					"max": ""
				},
				{
					"id": "sel_ev_status",
					"name": "status",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["open", "closed", "full", "cancelled"]
				},
				{
					"id": "num_ev_limit",
					"name": "participant_limit",
					"type": "number",
					"required": false,
					"onlyInt": true,
					"min": 0,
					"max": null
				},
				{
					"id": "num_ev_cost",
					"name": "cost",
					"type": "number",
					"required": false,
					"min": 0,
					"max": null
				},
				{
					"id": "autodate_ev_c",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"id": "autodate_ev_u",
					"name": "updated",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": true
				}
			],
			"indexes": [],
			"listRule": "",
			"viewRule": "",
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
		collection, err := app.FindCollectionByNameOrId("tv_events_00001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
