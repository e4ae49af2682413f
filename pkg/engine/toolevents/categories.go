package toolevents

// Category groups tool results for presentation: persistent-slot categories
// (music, timer, emergency) drive dedicated controls, everything else lands
// in the scrolling event log.
type Category string

const (
	CategorySearch            Category = "search"
	CategoryEmail             Category = "email"
	CategoryMessaging         Category = "messaging"
	CategoryVideo             Category = "video"
	CategoryMusic             Category = "music"
	CategoryCalendar          Category = "calendar"
	CategoryTasks             Category = "tasks"
	CategoryMaps              Category = "maps"
	CategoryDrive             Category = "drive"
	CategoryTimer             Category = "timer"
	CategoryEntertainment     Category = "entertainment"
	CategoryGames             Category = "games"
	CategoryWellness          Category = "wellness"
	CategoryHabits            Category = "habits"
	CategoryMedication        Category = "medication"
	CategoryClinical          Category = "clinical"
	CategoryCamera            Category = "camera"
	CategoryEmergency         Category = "emergency"
	CategoryEducation         Category = "education"
	CategoryLegal             Category = "legal"
	CategoryKids              Category = "kids"
	CategoryCode              Category = "code"
	CategoryDatabase          Category = "database"
	CategoryBrowser           Category = "browser"
	CategorySmartHome         Category = "smarthome"
	CategoryMessagingAdvanced Category = "messaging_advanced"
	CategoryWebhooks          Category = "webhooks"
	CategorySkills            Category = "skills"
	CategorySelfAware         Category = "selfaware"
	CategoryExecute           Category = "execute"
	CategoryGeneric           Category = "generic"
)

// categoryByTool maps every tool name the service emits to its category.
// Kept as data so it can be tested exhaustively and extended without
// touching control flow. Unlisted names classify as generic.
var categoryByTool = map[string]Category{
	// Communication & search
	"web_search":              CategorySearch,
	"browse_webpage":          CategorySearch,
	"show_webpage":            CategorySearch,
	"google_search_retrieval": CategorySearch,
	"send_email":              CategoryEmail,
	"send_whatsapp":           CategoryMessaging,
	"send_telegram":           CategoryMessaging,
	"search_videos":           CategoryVideo,
	"play_video":              CategoryVideo,
	"play_music":              CategoryMusic,

	// Productivity & location
	"manage_calendar_event": CategoryCalendar,
	"schedule_appointment":  CategoryCalendar,
	"pending_schedule":      CategoryCalendar,
	"confirm_schedule":      CategoryCalendar,
	"capture_task":          CategoryTasks,
	"list_tasks":            CategoryTasks,
	"complete_task":         CategoryTasks,
	"clarify_task":          CategoryTasks,
	"set_alarm":             CategoryTasks,
	"cancel_alarm":          CategoryTasks,
	"list_alarms":           CategoryTasks,
	"find_nearby_places":    CategoryMaps,
	"search_places":         CategoryMaps,
	"get_directions":        CategoryMaps,
	"nearby_transport":      CategoryMaps,
	"save_to_drive":         CategoryDrive,
	"create_health_doc":     CategoryDrive,
	"manage_health_sheet":   CategoryDrive,
	"pomodoro_timer":        CategoryTimer,

	// Entertainment & wellness
	"play_nostalgic_music": CategoryMusic,
	"play_radio_station":   CategoryMusic,
	"nature_sounds":        CategoryMusic,
	"religious_content":    CategoryEntertainment,
	"read_newspaper":       CategoryEntertainment,
	"daily_horoscope":      CategoryEntertainment,
	"play_trivia_game":     CategoryGames,
	"memory_game":          CategoryGames,
	"word_association":     CategoryGames,
	"brain_training":       CategoryGames,
	"guided_meditation":    CategoryWellness,
	"breathing_exercises":  CategoryWellness,
	"wim_hof_breathing":    CategoryWellness,
	"chair_exercises":      CategoryWellness,
	"log_habit":            CategoryHabits,
	"log_water":            CategoryHabits,
	"habit_stats":          CategoryHabits,
	"habit_summary":        CategoryHabits,

	// Health & clinical
	"confirm_medication":    CategoryMedication,
	"scan_medication_visual": CategoryMedication,
	"apply_phq9":            CategoryClinical,
	"apply_gad7":            CategoryClinical,
	"apply_cssrs":           CategoryClinical,
	"submit_phq9_response":  CategoryClinical,
	"submit_gad7_response":  CategoryClinical,
	"open_camera_analysis":  CategoryCamera,

	// Emergency
	"alert_family":          CategoryEmergency,
	"call_family_webrtc":    CategoryEmergency,
	"call_central_webrtc":   CategoryEmergency,
	"call_doctor_webrtc":    CategoryEmergency,
	"call_caregiver_webrtc": CategoryEmergency,

	// Education, legal, kids
	"explain_concept":           CategoryEducation,
	"create_cognitive_exercise": CategoryEducation,
	"check_learning_progress":   CategoryEducation,
	"study_topic":               CategoryEducation,
	"add_to_curriculum":         CategoryEducation,
	"list_curriculum":           CategoryEducation,
	"search_knowledge":          CategoryEducation,
	"get_elderly_rights":        CategoryLegal,
	"document_status":           CategoryLegal,
	"explain_legal_term":        CategoryLegal,
	"kids_mission_create":       CategoryKids,
	"kids_mission_complete":     CategoryKids,
	"kids_missions_pending":     CategoryKids,
	"kids_stats":                CategoryKids,
	"kids_learn":                CategoryKids,
	"kids_quiz":                 CategoryKids,
	"kids_story":                CategoryKids,

	// Advanced / debug
	"edit_my_code":           CategoryCode,
	"search_my_code":         CategoryCode,
	"read_file":              CategoryCode,
	"write_file":             CategoryCode,
	"list_files":             CategoryCode,
	"search_files":           CategoryCode,
	"create_branch":          CategoryCode,
	"commit_code":            CategoryCode,
	"run_tests":              CategoryCode,
	"get_code_diff":          CategoryCode,
	"query_nietzsche":        CategoryDatabase,
	"query_nietzsche_graph":  CategoryDatabase,
	"query_nietzsche_vector": CategoryDatabase,
	"query_postgresql":       CategoryDatabase,
	"run_sql_select":         CategoryDatabase,
	"query_my_database":      CategoryDatabase,
	"list_my_collections":    CategoryDatabase,
	"browser_navigate":       CategoryBrowser,
	"browser_fill_form":      CategoryBrowser,
	"browser_extract":        CategoryBrowser,
	"smart_home_control":     CategorySmartHome,
	"smart_home_status":      CategorySmartHome,
	"send_slack":             CategoryMessagingAdvanced,
	"send_discord":           CategoryMessagingAdvanced,
	"send_teams":             CategoryMessagingAdvanced,
	"send_signal":            CategoryMessagingAdvanced,
	"create_webhook":         CategoryWebhooks,
	"list_webhooks":          CategoryWebhooks,
	"trigger_webhook":        CategoryWebhooks,
	"create_skill":           CategorySkills,
	"list_skills":            CategorySkills,
	"execute_skill":          CategorySkills,
	"delete_skill":           CategorySkills,
	"search_self_knowledge":  CategorySelfAware,
	"update_self_knowledge":  CategorySelfAware,
	"introspect":             CategorySelfAware,
	"search_my_docs":         CategorySelfAware,
	"system_stats":           CategorySelfAware,
	"execute_code":           CategoryExecute,
	"control_ui":             CategoryGeneric,

	// Async result names emitted by the service's notifiers.
	"web_search_result":          CategorySearch,
	"web_search_error":           CategorySearch,
	"email_sent":                 CategoryEmail,
	"email_error":                CategoryEmail,
	"new_email":                  CategoryEmail,
	"video_error":                CategoryVideo,
	"whatsapp_sent":              CategoryMessaging,
	"whatsapp_error":             CategoryMessaging,
	"telegram_sent":              CategoryMessaging,
	"telegram_error":             CategoryMessaging,
	"slack_sent":                 CategoryMessagingAdvanced,
	"slack_error":                CategoryMessagingAdvanced,
	"discord_sent":               CategoryMessagingAdvanced,
	"discord_error":              CategoryMessagingAdvanced,
	"teams_sent":                 CategoryMessagingAdvanced,
	"teams_error":                CategoryMessagingAdvanced,
	"signal_sent":                CategoryMessagingAdvanced,
	"signal_error":               CategoryMessagingAdvanced,
	"calendar_event_created":     CategoryCalendar,
	"drive_saved":                CategoryDrive,
	"drive_error":                CategoryDrive,
	"places_found":               CategoryMaps,
	"places_error":               CategoryMaps,
	"play_radio":                 CategoryMusic,
	"play_nature_sound":          CategoryMusic,
	"play_spotify":               CategoryMusic,
	"play_religious":             CategoryEntertainment,
	"play_audiobook":             CategoryEntertainment,
	"pause_audiobook":            CategoryEntertainment,
	"resume_audiobook":           CategoryEntertainment,
	"play_podcast":               CategoryEntertainment,
	"pause_podcast":              CategoryEntertainment,
	"resume_podcast":             CategoryEntertainment,
	"play_sleep_story":           CategoryEntertainment,
	"show_family_tree":           CategoryEntertainment,
	"start_slideshow":            CategoryEntertainment,
	"pause_slideshow":            CategoryEntertainment,
	"stop_slideshow":             CategoryEntertainment,
	"select_photo_for_biography": CategoryEntertainment,
	"start_voice_recording":      CategoryEntertainment,
	"start_diary_recording":      CategoryEntertainment,
	"start_meditation":           CategoryWellness,
	"start_breathing":            CategoryWellness,
	"start_wim_hof":              CategoryWellness,
	"start_exercises":            CategoryWellness,
	"start_pomodoro":             CategoryTimer,
	"alarm_set":                  CategoryTasks,
	"alarm_cancelled":            CategoryTasks,
	"gtd_task_created":           CategoryTasks,
	"gtd_task_completed":         CategoryTasks,
	"habit_logged":               CategoryHabits,
	"water_logged":               CategoryHabits,
	"open_medication_scanner":    CategoryMedication,
	"high_depression_score":      CategoryClinical,
	"high_anxiety_score":         CategoryClinical,
	"cssrs_completed":            CategoryClinical,
	"suicide_risk_detected":      CategoryEmergency,
	"critical_suicide_risk":      CategoryEmergency,
	"critical_alert":             CategoryEmergency,
	"initiate_call":              CategoryEmergency,
	"language_lesson":            CategoryEducation,
	"code_result":                CategoryCode,
	"code_error":                 CategoryCode,
	"browser_result":             CategoryBrowser,
	"browser_error":              CategoryBrowser,
	"form_submitted":             CategoryBrowser,
	"extract_result":             CategoryBrowser,
	"nietzsche_result":           CategoryDatabase,
	"nietzsche_error":            CategoryDatabase,
	"smart_home_controlled":      CategorySmartHome,
	"smart_home_error":           CategorySmartHome,
	"webhook_triggered":          CategoryWebhooks,
	"webhook_error":              CategoryWebhooks,
	"skill_result":               CategorySkills,
	"skill_error":                CategorySkills,
	"memory_captured":            CategorySelfAware,
	"llm_response":               CategorySelfAware,
	"llm_error":                  CategorySelfAware,
}

// Classify maps a tool name to its category. Unrecognized names classify as
// generic; this never fails.
func Classify(toolName string) Category {
	if c, ok := categoryByTool[toolName]; ok {
		return c
	}
	return CategoryGeneric
}
