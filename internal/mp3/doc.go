// Package mp3 integrates an external MP3 codec capability: it converts
// decoded PCM sources into MP3 byte streams by feeding the codec
// fixed-size stereo frames and flushing once at the end.
package mp3
