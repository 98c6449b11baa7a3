package oracle

import (
	"fmt"
	"strings"
)

const standardPrompt = `You are an AI civic resolution verification engine.

You are given:
1. BEFORE image (original issue image)
2. AFTER image (worker resolution image)
3. Original issue type

Your task:
1. Determine whether the AFTER image appears to be from the SAME location.
2. Determine whether the issue appears RESOLVED.
3. Identify inconsistencies, manipulation, or mismatched scenes.
4. Detect if AFTER image is unrelated to BEFORE image.

Rules:
- Base decision only on visible evidence.
- If location landmarks differ significantly, mark a mismatch.
- If the issue object is still visible, it is not resolved.
- If the AFTER image lacks context, lower confidence.
- If BEFORE and AFTER appear to come from different environments, mark suspicious.

Return JSON only:
{
  "same_location": true/false,
  "issue_resolved": true/false,
  "visual_similarity_score": 0-100,
  "resolution_confidence": 0-100,
  "suspicious": true/false,
  "suspicion_reason": "",
  "analysis_summary": ""
}

No text outside JSON.`

const strictPrompt = `You are an AI forensic image verification system.

You are given:
1. BEFORE image (original issue)
2. AFTER image (worker resolution image)
3. Issue type

Your tasks:
1. Determine if the AFTER image was captured at the same physical location.
2. Determine if the reported issue is visibly resolved.
3. Detect if the AFTER image is unrelated to the BEFORE image.
4. Detect signs of AI-generated content, stock imagery, digital manipulation,
   reused or staged photos, inconsistent lighting or shadows, and unnatural artifacts.

Rules:
- If landmarks differ, same_location = false.
- If the issue object is still present, issue_resolved = false.
- If scene structure is inconsistent, suspicious = true.
- If the image appears overly clean or artificial, fake_detected = true.
- If lighting, weather or time of day mismatch, suspicious = true.
- If shadows do not match, suspicious = true.
- If perspective is impossible, fake_detected = true.
- Be strict and skeptical. Base decisions only on visible evidence.

Return ONLY JSON:
{
  "same_location": true/false,
  "issue_resolved": true/false,
  "fake_detected": true/false,
  "visual_consistency_score": 0-100,
  "resolution_confidence": 0-100,
  "suspicious": true/false,
  "suspicion_reason": "",
  "analysis_summary": ""
}

No text outside JSON.`

// Prompt builds the instruction text for a mode and issue category.
func Prompt(mode Mode, issueType string) string {
	issueType = strings.TrimSpace(issueType)
	if issueType == "" {
		issueType = "unspecified"
	}
	if mode == ModeStrict {
		return fmt.Sprintf("%s\n\nOriginal Issue Type: %s\n\n"+
			"Analyze these two images with strict forensic scrutiny:\n"+
			"1. BEFORE image (original issue)\n2. AFTER image (claimed resolution)\n\n"+
			"Detect any signs of manipulation, AI generation, or fraud.", strictPrompt, issueType)
	}
	return fmt.Sprintf("%s\n\nOriginal Issue Type: %s\n\n"+
		"Analyze these two images:\n"+
		"1. BEFORE image (original issue)\n2. AFTER image (claimed resolution)", standardPrompt, issueType)
}
