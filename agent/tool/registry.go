package tool

import (
	contractx "github.com/ktios/frontdesk/agent/contract"
)

// The fixed tool set the model may invoke. No tool is ever added or removed
// at runtime.
const (
	ToolCheckAvailability = "check_availability"
	ToolCreateReservation = "create_reservation"
	ToolModifyReservation = "modify_reservation"
	ToolCancelReservation = "cancel_reservation"
	ToolHandoffToHuman    = "handoff_to_human"
)

// Definitions returns the declared contract for every tool, in the OpenAI
// function-calling schema format. Tenant and conversation identifiers appear
// in the schemas for the model's benefit but are always overwritten by the
// orchestrator before dispatch.
func Definitions() []contractx.ToolDefinition {
	return []contractx.ToolDefinition{
		{
			Name:        ToolCheckAvailability,
			Description: "Vérifie la disponibilité pour une réservation à une date/heure précise. TOUJOURS appeler AVANT create_reservation.",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"start_time", "party_size"},
				"properties": map[string]any{
					"start_time": map[string]any{
						"type":        "string",
						"description": "ISO 8601 avec timezone (ex: 2026-02-20T19:00:00-05:00). TOUJOURS inclure timezone.",
					},
					"party_size": map[string]any{
						"type":        "integer",
						"minimum":     1,
						"description": "Nombre de personnes",
					},
					"location_id": map[string]any{
						"type":        []string{"string", "null"},
						"description": "UUID succursale si multi-sites",
					},
				},
			},
		},
		{
			Name:        ToolCreateReservation,
			Description: "Crée une réservation confirmée. Appeler UNIQUEMENT après check_availability ET confirmation du client.",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"customer", "start_time", "party_size"},
				"properties": map[string]any{
					"customer": map[string]any{
						"type":     "object",
						"required": []string{"phone_e164"},
						"properties": map[string]any{
							"phone_e164": map[string]any{
								"type":        "string",
								"description": "Numéro téléphone format E.164 (ex: +14185551234)",
							},
							"full_name": map[string]any{
								"type":        []string{"string", "null"},
								"description": "Nom complet du client",
							},
							"email": map[string]any{
								"type": []string{"string", "null"},
							},
						},
					},
					"start_time": map[string]any{
						"type":        "string",
						"description": "ISO 8601 avec timezone",
					},
					"party_size": map[string]any{
						"type":    "integer",
						"minimum": 1,
					},
					"notes": map[string]any{
						"type":        []string{"string", "null"},
						"description": "Notes spéciales (anniversaire, allergies, etc.)",
					},
				},
			},
		},
		{
			Name:        ToolModifyReservation,
			Description: "Modifie une réservation existante (heure, nombre, notes, statut).",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"reservation_id", "changes"},
				"properties": map[string]any{
					"reservation_id": map[string]any{
						"type":        "string",
						"description": "UUID de la réservation à modifier",
					},
					"changes": map[string]any{
						"type":        "object",
						"description": "Champs à modifier: start_time, party_size, notes, status",
						"properties": map[string]any{
							"start_time": map[string]any{"type": "string"},
							"party_size": map[string]any{"type": "integer"},
							"notes":      map[string]any{"type": "string"},
							"status": map[string]any{
								"type": "string",
								"enum": []string{"pending", "confirmed", "cancelled", "no_show"},
							},
						},
					},
				},
			},
		},
		{
			Name:        ToolCancelReservation,
			Description: "Annule une réservation existante.",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"reservation_id"},
				"properties": map[string]any{
					"reservation_id": map[string]any{
						"type":        "string",
						"description": "UUID réservation à annuler",
					},
					"reason": map[string]any{
						"type":        []string{"string", "null"},
						"description": "Raison de l'annulation",
					},
				},
			},
		},
		{
			Name:        ToolHandoffToHuman,
			Description: "Transfère la conversation à un humain. Utiliser si: client demande explicitement, situation complexe, ou frustration détectée.",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"reason"},
				"properties": map[string]any{
					"reason": map[string]any{
						"type":        "string",
						"description": "Raison du transfert (ex: 'Client demande le gérant')",
					},
					"priority": map[string]any{
						"type":        "string",
						"enum":        []string{"low", "normal", "high"},
						"default":     "normal",
						"description": "Urgence: high si client insistant/frustré",
					},
				},
			},
		},
	}
}
