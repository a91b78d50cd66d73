package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "tv_pays_000001",
			"name": "payments",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "rel_py_reg",
					"name": "registration",
					"type": "relation",
					"required": true,
					"collectionId": "tv_regs_000001",
					"cascadeDelete": false,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "rel_py_event",
					"name": "event",
					"type": "relation",
					"required": true,
					"collectionId": "tv_events_00001",
					"cascadeDelete": false,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "rel_py_user",
					"name": "user",
					"type": "relation",
					"required": true,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "num_py_amount",
					"name": "amount",
					"type": "number",
					"required": false,
					"min": 0,
					"max": null
				},
				{
					"id": "sel_py_method",
					"name": "payment_method",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["manual_bkash", "manual_nagad", "gateway_bkash", "gateway_nagad"]
				},
				{
					"id": "text_py_phone",
					"name": "phone_number",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "text_py_trxid",
					"name": "transaction_id",
					"type": "text",
					"required": true,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "sel_py_status",
					"name": "status",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["pending", "completed", "failed"]
				},
				{
					"id": "text_py_notes",
					"name": "admin_notes",
					"type": "text",
					"required": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "autodate_py_c",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"id": "autodate_py_u",
					"name": "updated",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": true
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_payments_transaction_id ON payments (transaction_id)"
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
		collection, err := app.FindCollectionByNameOrId("tv_pays_000001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
