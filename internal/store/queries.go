package store

// Cypher for the Memgraph-backed store. Keyed MERGEs carry a caller nonce so a
// create can tell whether it won the slot or found someone else's record.

const (
	saveScenarioQuery = `
		MERGE (s:Scenario {uuid: $uuid})
		SET s.title = $title,
			s.summary = $summary,
			s.facts = $facts,
			s.category = $category,
			s.law_type = $law_type,
			s.difficulty = $difficulty,
			s.created_at = $created_at
		RETURN s.uuid AS uuid
	`

	getScenarioQuery = `
		MATCH (s:Scenario {uuid: $uuid})
		RETURN s.uuid AS uuid, s.title AS title, s.summary AS summary,
			s.facts AS facts, s.category AS category, s.law_type AS law_type,
			s.difficulty AS difficulty, s.created_at AS created_at
	`

	listScenariosQuery = `
		MATCH (s:Scenario)
		RETURN s.uuid AS uuid, s.title AS title, s.summary AS summary,
			s.facts AS facts, s.category AS category, s.law_type AS law_type,
			s.difficulty AS difficulty, s.created_at AS created_at
		ORDER BY s.category, s.created_at DESC
	`

	saveCaseQuery = `
		MERGE (c:Case {uuid: $uuid})
		SET c.title = $title,
			c.summary = $summary,
			c.case_type = $case_type,
			c.created_by = $created_by,
			c.opponent_type = $opponent_type,
			c.ai_side = $ai_side,
			c.current_stage = $current_stage,
			c.status = $status,
			c.created_at = $created_at
		RETURN c.uuid AS uuid
	`

	getCaseQuery = `
		MATCH (c:Case {uuid: $uuid})
		RETURN c.uuid AS uuid, c.title AS title, c.summary AS summary,
			c.case_type AS case_type, c.created_by AS created_by,
			c.opponent_type AS opponent_type, c.ai_side AS ai_side,
			c.current_stage AS current_stage, c.status AS status,
			c.created_at AS created_at
	`

	// Conditional stage write: matches only while the case is still at the
	// expected stage, so two racing advances cannot both succeed.
	advanceCaseStageQuery = `
		MATCH (c:Case {uuid: $uuid})
		WHERE c.current_stage = $from
		SET c.current_stage = $to
		RETURN c.uuid AS uuid
	`

	setCaseStatusQuery = `
		MATCH (c:Case {uuid: $uuid})
		SET c.status = $status
		RETURN c.uuid AS uuid
	`

	saveParticipantQuery = `
		MERGE (p:Participant {case_uuid: $case_uuid, side: $side})
		ON CREATE SET p.user_id = $user_id, p.created_at = $created_at, p.nonce = $nonce
		RETURN p.nonce AS nonce
	`

	listParticipantsQuery = `
		MATCH (p:Participant {case_uuid: $case_uuid})
		RETURN p.case_uuid AS case_uuid, p.user_id AS user_id, p.side AS side,
			p.created_at AS created_at
		ORDER BY p.created_at
	`

	saveSubmissionQuery = `
		MERGE (s:Submission {case_uuid: $case_uuid, stage: $stage, side: $side})
		ON CREATE SET s.uuid = $uuid, s.user_id = $user_id, s.automated = $automated,
			s.transcript = $transcript, s.audio_ref = $audio_ref,
			s.created_at = $created_at, s.nonce = $nonce
		RETURN s.nonce AS nonce
	`

	listSubmissionsQuery = `
		MATCH (s:Submission {case_uuid: $case_uuid})
		RETURN s.uuid AS uuid, s.case_uuid AS case_uuid, s.stage AS stage,
			s.side AS side, s.user_id AS user_id, s.automated AS automated,
			s.transcript AS transcript, s.audio_ref AS audio_ref,
			s.created_at AS created_at
		ORDER BY s.created_at
	`

	saveVerdictQuery = `
		MERGE (v:Verdict {case_uuid: $case_uuid})
		ON CREATE SET v.result = $result, v.settled = false,
			v.created_at = $created_at, v.nonce = $nonce
		RETURN v.nonce AS nonce
	`

	getVerdictQuery = `
		MATCH (v:Verdict {case_uuid: $case_uuid})
		RETURN v.case_uuid AS case_uuid, v.result AS result,
			v.settled AS settled, v.created_at AS created_at
	`

	markVerdictSettledQuery = `
		MATCH (v:Verdict {case_uuid: $case_uuid})
		WHERE coalesce(v.settled, false) = false
		SET v.settled = true
		RETURN v.case_uuid AS case_uuid
	`

	saveCaseResultQuery = `
		MERGE (r:CaseResult {case_uuid: $case_uuid})
		ON CREATE SET r.a_user_id = $a_user_id, r.b_user_id = $b_user_id,
			r.winner = $winner, r.score_a = $score_a, r.score_b = $score_b,
			r.created_at = $created_at
		RETURN r.case_uuid AS case_uuid
	`

	saveUserQuery = `
		MERGE (u:User {uuid: $uuid})
		SET u.email = $email, u.role = $role
		RETURN u.uuid AS uuid
	`

	getUserQuery = `
		MATCH (u:User {uuid: $uuid})
		RETURN u.uuid AS uuid, u.email AS email, u.role AS role
	`

	// The ranking upsert is a single MERGE so concurrent settlements of
	// different cases cannot lose updates for the same identity.
	applyRankingDeltaQuery = `
		MERGE (r:Ranking {user_id: $user_id})
		ON CREATE SET r.name = $name, r.score = $initial,
			r.wins = $win_inc, r.losses = $loss_inc, r.updated_at = $now
		ON MATCH SET r.name = $name, r.score = r.score + $delta,
			r.wins = r.wins + $win_inc, r.losses = r.losses + $loss_inc,
			r.updated_at = $now
		RETURN r.user_id AS user_id
	`

	listRankingsQuery = `
		MATCH (r:Ranking)
		RETURN r.user_id AS user_id, r.name AS name, r.score AS score,
			r.wins AS wins, r.losses AS losses, r.updated_at AS updated_at
		ORDER BY r.score DESC
		LIMIT $limit
	`
)
