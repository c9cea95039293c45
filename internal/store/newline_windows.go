package store

const lineEnding = "\r\n"
