package telemetry

// damageCauserNames maps telemetry damage causer ids to display names. Ids not
// listed are shown as-is.
var damageCauserNames = map[string]string{
	"AIPawn_Base_Female_C":             "AI Player",
	"AIPawn_Base_Male_C":               "AI Player",
	"BattleRoyaleModeController_C":     "Bluezone",
	"BlackZoneController_Def_C":        "Blackzone",
	"Bluezonebomb_EffectActor_C":       "Bluezone Grenade",
	"Buff_DecreaseBreathInApnea_C":     "Drowning",
	"Buggy_A_01_C":                     "Buggy",
	"Dacia_A_01_v2_C":                  "Dacia",
	"Jerrycan":                         "Jerrycan",
	"JerrycanFire":                     "Jerrycan Fire",
	"Mirado_A_01_C":                    "Mirado",
	"Motorbike_04_C":                   "Motorcycle",
	"PanzerFaust100M_Projectile_C":     "Panzerfaust",
	"PlayerFemale_A_C":                 "Player",
	"PlayerMale_A_C":                   "Player",
	"ProjGrenade_C":                    "Frag Grenade",
	"ProjMolotov_C":                    "Molotov Cocktail",
	"ProjMolotov_DamageField_Direct_C": "Molotov Cocktail Fire Field",
	"ProjStickyGrenade_C":              "Sticky Bomb",
	"RedZoneBomb_C":                    "Redzone",
	"Uaz_A_01_C":                       "UAZ",
	"WeapACE32_C":                      "ACE32",
	"WeapAK47_C":                       "AKM",
	"WeapAUG_C":                        "AUG A3",
	"WeapAWM_C":                        "AWM",
	"WeapBerreta686_C":                 "S686",
	"WeapBerylM762_C":                  "Beryl",
	"WeapBizonPP19_C":                  "Bizon",
	"WeapCowbar_C":                     "Crowbar",
	"WeapCrossbow_1_C":                 "Crossbow",
	"WeapDP12_C":                       "DBS",
	"WeapDP28_C":                       "DP-28",
	"WeapDesertEagle_C":                "Deagle",
	"WeapDragunov_C":                   "Dragunov",
	"WeapFNFal_C":                      "SLR",
	"WeapFamasG2_C":                    "FAMAS",
	"WeapG18_C":                        "P18C",
	"WeapG36C_C":                       "G36C",
	"WeapGroza_C":                      "Groza",
	"WeapHK416_C":                      "M416",
	"WeapJS9_C":                        "JS9",
	"WeapK2_C":                         "K2",
	"WeapKar98k_C":                     "Kar98k",
	"WeapL6_C":                         "Lynx AMR",
	"WeapM16A4_C":                      "M16A4",
	"WeapM1911_C":                      "P1911",
	"WeapM249_C":                       "M249",
	"WeapM24_C":                        "M24",
	"WeapM9_C":                         "P92",
	"WeapMG3_C":                        "MG3",
	"WeapMP5K_C":                       "MP5K",
	"WeapMachete_C":                    "Machete",
	"WeapMini14_C":                     "Mini 14",
	"WeapMk12_C":                       "Mk12",
	"WeapMk14_C":                       "Mk14 EBR",
	"WeapMk47Mutant_C":                 "Mk47 Mutant",
	"WeapMosinNagant_C":                "Mosin-Nagant",
	"WeapNagantM1895_C":                "R1895",
	"WeapOriginS12_C":                  "O12",
	"WeapP90_C":                        "P90",
	"WeapPan_C":                        "Pan",
	"WeapQBU88_C":                      "QBU88",
	"WeapQBZ95_C":                      "QBZ95",
	"WeapRhino_C":                      "R45",
	"WeapSCAR-L_C":                     "SCAR-L",
	"WeapSKS_C":                        "SKS",
	"WeapSaiga12_C":                    "S12K",
	"WeapSawnoff_C":                    "Sawed-off",
	"WeapSickle_C":                     "Sickle",
	"WeapThompson_C":                   "Tommy Gun",
	"WeapUMP_C":                        "UMP9",
	"WeapUZI_C":                        "Micro Uzi",
	"WeapVSS_C":                        "VSS",
	"WeapVector_C":                     "Vector",
	"WeapWin94_C":                      "Win94",
	"WeapWinchester_C":                 "S1897",
	"Weapmk47Mutant_C":                 "Mk47 Mutant",
	"WeapMads_QBU88_C":                 "QBU88",
	"None":                             "None",
}

// WeaponName returns the display name for a damage causer id
func WeaponName(id string) string {
	if name, ok := damageCauserNames[id]; ok {
		return name
	}
	return id
}
