package services

const validBattleJSON = `{"combatant1":{"name":"Hai","description":"Ein gefährlicher Meeresräuber","stats":{"strength":85,"speed":70,"defense":60,"agility":65,"intelligence":40,"stamina":75},"strengths":["Starker Biss"],"weaknesses":["Langsam an Land"]},"combatant2":{"name":"Tiger","description":"Eine Raubkatze","stats":{"strength":80,"speed":75,"defense":55,"agility":85,"intelligence":50,"stamina":70},"strengths":["Krallen"],"weaknesses":["Wasserscheu"]},"winner":1,"winProbability":75,"scenarios":[{"title":"Im Wasser","description":"Der Hai dominiert","advantage":1},{"title":"An Land","description":"Der Tiger gewinnt","advantage":2}],"verdict":"Kommt auf die Umgebung an!"}`
