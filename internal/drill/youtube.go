package drill

import "strings"

// YouTubeID extracts the video id from watch, short and youtu.be links.
func YouTubeID(url string) string {
	cut := func(s, sep string) string {
		if i := strings.Index(s, sep); i >= 0 {
			return s[:i]
		}
		return s
	}
	switch {
	case url == "":
		return ""
	case strings.Contains(url, "/shorts/"):
		return cut(url[strings.LastIndex(url, "/shorts/")+len("/shorts/"):], "?")
	case strings.Contains(url, "youtu.be/"):
		return cut(url[strings.LastIndex(url, "youtu.be/")+len("youtu.be/"):], "?")
	case strings.Contains(url, "v="):
		return cut(url[strings.Index(url, "v=")+len("v="):], "&")
	}
	return ""
}

// YouTubeThumb returns the medium quality thumbnail of a YouTube link, or "" for other links.
func YouTubeThumb(url string) string {
	id := YouTubeID(url)
	if id == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + id + "/mqdefault.jpg"
}
